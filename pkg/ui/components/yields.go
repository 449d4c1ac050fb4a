package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// YieldRow is one pool in the yield table.
type YieldRow struct {
	Name string
	APY  decimal.Decimal
}

// YieldsComponent renders pools best-first and marks the current position.
type YieldsComponent struct {
	rows    []YieldRow
	current string
}

func NewYieldsComponent(current string) *YieldsComponent {
	return &YieldsComponent{current: current}
}

// SetCurrent changes the highlighted pool, for example after a move.
func (y *YieldsComponent) SetCurrent(name string) {
	y.current = name
}

// Update replaces the rows; callers pass them sorted by APY.
func (y *YieldsComponent) Update(rows []YieldRow) {
	y.rows = rows
}

func (y *YieldsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9945FF"))
	currentStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render("YIELD POOLS") + "\n\n"
	if len(y.rows) == 0 {
		return result + dimStyle.Render("  Waiting for pool data...")
	}

	result += fmt.Sprintf("  %-22s  %8s\n", "Pool", "APY")
	result += dimStyle.Render("  "+strings.Repeat("─", 34)) + "\n"
	for _, row := range y.rows {
		line := fmt.Sprintf("  %-22s  %7s%%", row.Name, row.APY.StringFixed(2))
		if strings.EqualFold(row.Name, y.current) {
			line = currentStyle.Render(line + "  ◀ current")
		}
		result += line + "\n"
	}
	return result
}
