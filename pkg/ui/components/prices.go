// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// PriceRow is one token in the price table.
type PriceRow struct {
	Symbol string
	USD    decimal.Decimal
	Source string
	Age    time.Duration
	// Change is the move since the previous update, in percent.
	Change decimal.Decimal
}

// PricesComponent renders the token price table.
type PricesComponent struct {
	rows      []PriceRow
	previous  map[string]decimal.Decimal
	staleness time.Duration
}

// NewPricesComponent creates a prices table; rows older than staleness are
// dimmed.
func NewPricesComponent(staleness time.Duration) *PricesComponent {
	return &PricesComponent{
		previous:  make(map[string]decimal.Decimal),
		staleness: staleness,
	}
}

// Update replaces the rows and computes each token's change since the
// last update.
func (p *PricesComponent) Update(rows []PriceRow) {
	for i := range rows {
		if prev, ok := p.previous[rows[i].Symbol]; ok && prev.IsPositive() {
			rows[i].Change = rows[i].USD.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
		}
		p.previous[rows[i].Symbol] = rows[i].USD
	}
	p.rows = rows
}

// Rows returns the current rows.
func (p *PricesComponent) Rows() []PriceRow {
	return p.rows
}

// View renders the prices component.
func (p *PricesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9945FF"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#14F195"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render("TOKEN PRICES") + "\n\n"
	if len(p.rows) == 0 {
		return result + dimStyle.Render("  Waiting for price data...")
	}

	result += fmt.Sprintf("  %-8s  %12s  %9s  %-8s\n", "Token", "USD", "Change", "Source")
	result += dimStyle.Render("  "+strings.Repeat("─", 44)) + "\n"

	for _, row := range p.rows {
		changeStyle := positiveStyle
		if row.Change.IsNegative() {
			changeStyle = negativeStyle
		}
		line := fmt.Sprintf("  %-8s  %12s  %s  %-8s",
			row.Symbol,
			"$"+row.USD.StringFixed(4),
			changeStyle.Render(fmt.Sprintf("%+8.3f%%", row.Change.InexactFloat64())),
			row.Source,
		)
		if p.staleness > 0 && row.Age > p.staleness {
			line = dimStyle.Render(line + " (stale)")
		}
		result += line + "\n"
	}
	return result
}
