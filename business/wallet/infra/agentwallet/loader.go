// Package agentwallet implements the wallet port backed by the agent
// wallet's local JSON config file.
package agentwallet

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

// DefaultConfigPath is where the agent wallet keeps its credentials.
const DefaultConfigPath = "~/.agentwallet/config.json"

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ReadCredentials reads apiToken and solanaAddress from the JSON file at
// path. A missing file yields empty credentials and no error.
func ReadCredentials(path string) (domain.Credentials, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	path = ExpandHome(path)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return domain.Credentials{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return domain.Credentials{}, apperror.New(apperror.CodeWalletConfigInvalid,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}

	return domain.Credentials{
		APIToken:      v.GetString("apiToken"),
		SolanaAddress: v.GetString("solanaAddress"),
	}, nil
}

// LoadCredentials reads the file, falls back to empty credentials on any
// error and applies override on top.
func LoadCredentials(ctx context.Context, path string, override domain.Credentials, log logger.LoggerInterface) domain.Credentials {
	creds, err := ReadCredentials(path)
	if err != nil {
		log.Error(ctx, "failed to load agent wallet config", "path", path, "error", err)
		creds = domain.Credentials{}
	}

	creds = creds.Merge(override)
	if creds.HasAddress() {
		log.Info(ctx, "agent wallet loaded", "address", creds.SolanaAddress, "has_token", creds.HasToken())
	} else {
		log.Info(ctx, "agent wallet has no address configured", "path", path)
	}
	return creds
}
