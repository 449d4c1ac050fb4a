// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/defi-optimizer/business/chain/app"
	"github.com/fd1az/defi-optimizer/internal/di"
)

// Public service tokens
var (
	ChainService = di.NewToken[*app.ChainService]("chain.ChainService")
	// AccountReader is only registered when chain.mode is rpc.
	AccountReader = di.NewToken[app.AccountReader]("chain.AccountReader")
)

// Private dependency tokens
var (
	ChainState = di.NewToken[app.ChainState]("chain:chainState")
)

func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetAccountReader(c di.ServiceRegistry) app.AccountReader {
	return di.GetToken(c, AccountReader)
}

func GetChainState(c di.ServiceRegistry) app.ChainState {
	return di.GetToken(c, ChainState)
}
