package asset

// Well-known mainnet mints.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintMSOL = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
)

// Token decimals.
const (
	DecimalsSOL  = 9
	DecimalsUSDC = 6
	DecimalsUSDT = 6
	DecimalsMSOL = 9
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

var (
	SOL  = NewAssetWithName(MustParseMintID(MintSOL), "SOL", "Solana", DecimalsSOL)
	USDC = NewStablecoin(MustParseMintID(MintUSDC), "USDC", "USD Coin", DecimalsUSDC)
	USDT = NewStablecoin(MustParseMintID(MintUSDT), "USDT", "Tether USD", DecimalsUSDT)
	MSOL = NewAssetWithName(MustParseMintID(MintMSOL), "mSOL", "Marinade staked SOL", DecimalsMSOL)
)

// DefaultRegistry returns a registry holding the well-known tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SOL)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(MSOL)
	return r
}
