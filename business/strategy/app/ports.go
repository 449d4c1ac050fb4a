// Package app contains application services and port definitions for the strategy context.
package app

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	chainDomain "github.com/fd1az/defi-optimizer/business/chain/domain"
	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	walletDomain "github.com/fd1az/defi-optimizer/business/wallet/domain"
)

// Quotes is the quoting context as seen by strategies.
type Quotes interface {
	Primary() string
	Venues() []string
	Quote(ctx context.Context, venue string, req quotingDomain.QuoteRequest) (*quotingDomain.Quote, error)
	BuildSwap(ctx context.Context, quote *quotingDomain.Quote, owner solana.PublicKey) (*quotingDomain.SwapTransaction, error)
}

// Market provides prices and yield pools.
type Market interface {
	FeedSource() string
	Prices(ctx context.Context) []marketDomain.TokenPrice
	Pools(ctx context.Context) ([]marketDomain.YieldPool, error)
}

// Wallet is the owner of executed trades.
type Wallet interface {
	HasAddress() bool
	Owner() (solana.PublicKey, error)
	RequireBalance(ctx context.Context, amount decimal.Decimal) error
	Broadcast(ctx context.Context, signedBase64 string) (walletDomain.TxHash, error)
}

// ChainStatus reports the health of the chain data source.
type ChainStatus interface {
	Status() chainDomain.Status
}

// Reporter defines the interface for presenting runner activity.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportCycle is called once per completed cycle.
	ReportCycle(report *domain.CycleReport, stats domain.Stats)

	// ReportOpportunity sends a detected opportunity to be displayed/logged.
	ReportOpportunity(opp *domain.Opportunity)

	// ReportExecution sends the outcome of acting on an opportunity.
	ReportExecution(opp *domain.Opportunity, result *domain.ExecutionResult)

	// UpdatePrices updates the current price display.
	UpdatePrices(prices []marketDomain.TokenPrice)

	// UpdateYields updates the pool display.
	UpdateYields(pools []marketDomain.YieldPool)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
