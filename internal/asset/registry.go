package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is a thread-safe set of known tokens, indexed by mint and symbol.
type Registry struct {
	mu       sync.RWMutex
	byID     map[MintID]*Asset
	bySymbol map[string]*Asset // upper-cased symbol
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[MintID]*Asset),
		bySymbol: make(map[string]*Asset),
	}
}

// Register adds a token. It panics on a duplicate mint or symbol.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		panic(fmt.Sprintf("asset: mint %s already registered", a.ID()))
	}
	key := strings.ToUpper(a.Symbol())
	if _, exists := r.bySymbol[key]; exists {
		panic(fmt.Sprintf("asset: symbol %s already registered", a.Symbol()))
	}

	r.byID[a.ID()] = a
	r.bySymbol[key] = a
}

// Get looks a token up by mint.
func (r *Registry) Get(id MintID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// GetByMint looks a token up by base58 mint address.
func (r *Registry) GetByMint(mint string) (*Asset, bool) {
	id, err := ParseMintID(mint)
	if err != nil {
		return nil, false
	}
	return r.Get(id)
}

// GetBySymbol looks a token up by symbol, case-insensitively.
func (r *Registry) GetBySymbol(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bySymbol[strings.ToUpper(symbol)]
	return a, ok
}

// MustGetBySymbol panics when symbol is unknown.
func (r *Registry) MustGetBySymbol(symbol string) *Asset {
	a, ok := r.GetBySymbol(symbol)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", symbol))
	}
	return a
}

// Resolve accepts either a symbol or a base58 mint.
func (r *Registry) Resolve(symbolOrMint string) (*Asset, bool) {
	if a, ok := r.GetBySymbol(symbolOrMint); ok {
		return a, true
	}
	return r.GetByMint(symbolOrMint)
}

// All returns every token ordered by symbol.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol() < result[j].Symbol() })
	return result
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) Has(id MintID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}
