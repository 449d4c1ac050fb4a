package agentwallet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
)

const testAddress = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type mockLogger struct {
	errors []string
	infos  []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any) {
	m.infos = append(m.infos, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.errors = append(m.errors, msg)
}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/.agentwallet/config.json"); got != filepath.Join(home, ".agentwallet/config.json") {
		t.Errorf("unexpected expansion %s", got)
	}
	if got := ExpandHome("/etc/wallet.json"); got != "/etc/wallet.json" {
		t.Errorf("absolute path changed: %s", got)
	}
	if got := ExpandHome("~other/x"); got != "~other/x" {
		t.Errorf("~user path changed: %s", got)
	}
}

func TestReadCredentials(t *testing.T) {
	path := writeFile(t, `{"apiToken":"tok-123","solanaAddress":"`+testAddress+`","extra":true}`)

	creds, err := ReadCredentials(path)
	if err != nil {
		t.Fatalf("ReadCredentials: %v", err)
	}
	if creds.APIToken != "tok-123" || creds.SolanaAddress != testAddress {
		t.Errorf("unexpected credentials %+v", creds)
	}
}

func TestReadCredentials_MissingFileIsSilent(t *testing.T) {
	creds, err := ReadCredentials(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if creds.HasAddress() || creds.HasToken() {
		t.Errorf("expected empty credentials, got %+v", creds)
	}
}

func TestReadCredentials_Malformed(t *testing.T) {
	_, err := ReadCredentials(writeFile(t, `{"apiToken": `))
	if !apperror.HasCode(err, apperror.CodeWalletConfigInvalid) {
		t.Fatalf("expected WALLET_CONFIG_INVALID, got %v", err)
	}
}

func TestLoadCredentials_FallbackAndOverride(t *testing.T) {
	log := &mockLogger{}
	creds := LoadCredentials(context.Background(), writeFile(t, `not json`), domain.Credentials{}, log)
	if creds.HasAddress() {
		t.Errorf("expected fallback to empty credentials, got %+v", creds)
	}
	if len(log.errors) != 1 {
		t.Errorf("expected one logged error, got %v", log.errors)
	}

	path := writeFile(t, `{"apiToken":"file","solanaAddress":"file-address"}`)
	creds = LoadCredentials(context.Background(), path, domain.Credentials{SolanaAddress: testAddress}, &mockLogger{})
	if creds.SolanaAddress != testAddress || creds.APIToken != "file" {
		t.Errorf("override not applied: %+v", creds)
	}
}

type fakeBalances struct {
	lamports uint64
	err      error
	owner    solana.PublicKey
}

func (f *fakeBalances) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	f.owner = owner
	return f.lamports, f.err
}

func newWallet(address string, balances *fakeBalances) *Wallet {
	cfg := Config{MockBalance: decimal.RequireFromString("0.5"), MockTxHash: "mocked_transaction_hash_12345"}
	if balances == nil {
		return NewWallet(domain.Credentials{SolanaAddress: address}, cfg, nil, &mockLogger{})
	}
	return NewWallet(domain.Credentials{SolanaAddress: address}, cfg, balances, &mockLogger{})
}

func TestWallet_Balance(t *testing.T) {
	ctx := context.Background()

	bal, err := newWallet(testAddress, nil).Balance(ctx)
	if err != nil || !bal.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected mocked 0.5, got %s, %v", bal, err)
	}

	reader := &fakeBalances{lamports: 1_250_000_000}
	bal, err = newWallet(testAddress, reader).Balance(ctx)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !bal.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("expected 1.25 SOL, got %s", bal)
	}
	if reader.owner.String() != testAddress {
		t.Errorf("balance read for %s", reader.owner)
	}

	_, err = newWallet(testAddress, &fakeBalances{err: errors.New("rpc down")}).Balance(ctx)
	if !apperror.HasCode(err, apperror.CodeChainRPCError) {
		t.Errorf("expected CHAIN_RPC_ERROR, got %v", err)
	}

	_, err = newWallet("", &fakeBalances{}).Balance(ctx)
	if !apperror.HasCode(err, apperror.CodeWalletAddressMissing) {
		t.Errorf("expected WALLET_ADDRESS_MISSING, got %v", err)
	}
}

func TestWallet_SendRawTransaction(t *testing.T) {
	ctx := context.Background()
	log := &mockLogger{}
	w := NewWallet(domain.Credentials{SolanaAddress: testAddress},
		Config{MockTxHash: "mocked_transaction_hash_12345"}, nil, log)

	hash, err := w.SendRawTransaction(ctx, strings.Repeat("A", 100))
	if err != nil {
		t.Fatalf("SendRawTransaction: %v", err)
	}
	if hash != "mocked_transaction_hash_12345" {
		t.Errorf("unexpected hash %s", hash)
	}
	if len(log.infos) != 1 {
		t.Errorf("expected the send to be logged")
	}

	if _, err := w.SendRawTransaction(ctx, ""); !apperror.HasCode(err, apperror.CodeSwapTransactionMissing) {
		t.Errorf("expected SWAP_TRANSACTION_MISSING, got %v", err)
	}

	_, err = newWallet("", nil).SendRawTransaction(ctx, "payload")
	if !apperror.HasCode(err, apperror.CodeWalletAddressMissing) {
		t.Errorf("expected WALLET_ADDRESS_MISSING, got %v", err)
	}
}
