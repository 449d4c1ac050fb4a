// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/defi-optimizer/business/market/app"
	"github.com/fd1az/defi-optimizer/internal/di"
)

// Public service tokens
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
)

// Private dependency tokens
var (
	PriceFeed   = di.NewToken[app.PriceFeed]("market:priceFeed")
	YieldSource = di.NewToken[app.YieldSource]("market:yieldSource")
)

func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetPriceFeed(c di.ServiceRegistry) app.PriceFeed {
	return di.GetToken(c, PriceFeed)
}

func GetYieldSource(c di.ServiceRegistry) app.YieldSource {
	return di.GetToken(c, YieldSource)
}
