package mock

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/fd1az/defi-optimizer/business/quoting/app"
	"github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/logger"
)

var _ app.SwapBuilder = (*SwapBuilder)(nil)

// SwapBuilder returns a fixed payload stamped with the chain's
// blockhash height and priority fee.
type SwapBuilder struct {
	payload string
	chain   app.ChainReader
	log     logger.LoggerInterface
}

// NewSwapBuilder creates a new SwapBuilder. An empty payload makes every
// build come back without a transaction.
func NewSwapBuilder(payload string, chain app.ChainReader, log logger.LoggerInterface) *SwapBuilder {
	return &SwapBuilder{payload: payload, chain: chain, log: log}
}

func (b *SwapBuilder) SwapTransaction(ctx context.Context, quote *domain.Quote, owner solana.PublicKey) (*domain.SwapTransaction, error) {
	if quote == nil {
		return nil, apperror.Validation(apperror.CodeInvalidQuote, "nil quote")
	}
	if owner.IsZero() {
		return nil, apperror.Precondition(apperror.CodeWalletAddressMissing, "swap needs an owner")
	}

	hash, err := b.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSwapBuildFailed, "latest blockhash")
	}
	fee, err := b.chain.PriorityFee(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSwapBuildFailed, "priority fee")
	}

	b.log.Debug(ctx, "built swap transaction",
		"venue", quote.Venue,
		"owner", owner.String(),
		"blockhash", hash.Hash,
		"last_valid_block_height", hash.LastValidBlockHeight)

	return &domain.SwapTransaction{
		SwapTransaction:           b.payload,
		LastValidBlockHeight:      hash.LastValidBlockHeight,
		PrioritizationFeeLamports: fee,
	}, nil
}
