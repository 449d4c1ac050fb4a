package asset

// Asset is the metadata of an SPL token, identified by its mint.
type Asset struct {
	id       MintID
	symbol   string
	name     string
	decimals uint8
	stable   bool
}

// NewAsset creates an Asset.
func NewAsset(id MintID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 18 {
		panic("asset: suspicious decimals (>18)")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewAssetWithName creates an Asset with a human-readable name.
func NewAssetWithName(id MintID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

// NewStablecoin creates a USD-pegged asset.
func NewStablecoin(id MintID, symbol, name string, decimals uint8) *Asset {
	a := NewAssetWithName(id, symbol, name, decimals)
	a.stable = true
	return a
}

func (a *Asset) ID() MintID {
	return a.id
}

// Mint returns the base58 mint address.
func (a *Asset) Mint() string {
	return a.id.String()
}

func (a *Asset) Symbol() string {
	return a.symbol
}

// Name falls back to the symbol when unset.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// IsStable reports whether the asset is pegged to USD.
func (a *Asset) IsStable() bool {
	return a.stable
}

func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two assets by mint.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
