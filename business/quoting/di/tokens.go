// Package di contains dependency injection tokens for the quoting context.
package di

import (
	"github.com/fd1az/defi-optimizer/business/quoting/app"
	"github.com/fd1az/defi-optimizer/internal/di"
)

// Public service tokens
var (
	QuotingService = di.NewToken[*app.QuotingService]("quoting.QuotingService")
)

// Private dependency tokens
var (
	Quoters     = di.NewToken[[]app.Quoter]("quoting:quoters")
	SwapBuilder = di.NewToken[app.SwapBuilder]("quoting:swapBuilder")
)

func GetQuotingService(c di.ServiceRegistry) *app.QuotingService {
	return di.GetToken(c, QuotingService)
}

func GetQuoters(c di.ServiceRegistry) []app.Quoter {
	return di.GetToken(c, Quoters)
}

func GetSwapBuilder(c di.ServiceRegistry) app.SwapBuilder {
	return di.GetToken(c, SwapBuilder)
}
