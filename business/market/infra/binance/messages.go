// Package binance streams spot prices from Binance miniTicker streams.
package binance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StreamEvent wraps every message on a combined stream.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// MiniTickerEvent is the rolling 24h mini ticker.
// Stream: <symbol>@miniTicker
type MiniTickerEvent struct {
	EventType   string `json:"e"` // "24hrMiniTicker"
	EventTime   int64  `json:"E"` // ms
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	BaseVolume  string `json:"v"`
	QuoteVolume string `json:"q"`
}

// ParseClose parses the last price.
func (e *MiniTickerEvent) ParseClose() (decimal.Decimal, error) {
	return decimal.NewFromString(e.Close)
}

// Timestamp returns the event time.
func (e *MiniTickerEvent) Timestamp() time.Time {
	return time.UnixMilli(e.EventTime)
}

// MiniTickerStream returns the stream name for a symbol.
func MiniTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@miniTicker"
}

// quoteSuffixes are the USD-pegged quote assets a symbol may end with.
var quoteSuffixes = []string{"USDT", "USDC", "FDUSD", "BUSD"}

// BaseSymbol strips the USD quote from a pair symbol: "SOLUSDT" -> "SOL".
func BaseSymbol(pair string) (string, bool) {
	upper := strings.ToUpper(pair)
	for _, q := range quoteSuffixes {
		if base, ok := strings.CutSuffix(upper, q); ok && base != "" {
			return base, true
		}
	}
	return "", false
}
