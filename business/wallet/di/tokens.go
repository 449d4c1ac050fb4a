// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/defi-optimizer/business/wallet/app"
	"github.com/fd1az/defi-optimizer/internal/di"
)

// Public service tokens
var (
	WalletService = di.NewToken[*app.WalletService]("wallet.WalletService")
)

// Private dependency tokens
var (
	Wallet = di.NewToken[app.Wallet]("wallet:wallet")
)

func GetWalletService(c di.ServiceRegistry) *app.WalletService {
	return di.GetToken(c, WalletService)
}

func GetWallet(c di.ServiceRegistry) app.Wallet {
	return di.GetToken(c, Wallet)
}
