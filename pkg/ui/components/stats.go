package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds statistics for display.
type Stats struct {
	Cycles        uint64
	Opportunities uint64
	Executions    uint64
	Abandoned     uint64
	Uptime        time.Duration
	LastCycle     time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	abandoned := valueStyle.Render(fmt.Sprintf("%d", s.stats.Abandoned))
	if s.stats.Abandoned > 0 {
		abandoned = errorStyle.Render(fmt.Sprintf("%d", s.stats.Abandoned))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Cycles: %s  │  Opportunities: %s  │  Executed: %s  │  Abandoned: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Executions)),
			abandoned,
		) +
		fmt.Sprintf("Uptime: %s  │  Last cycle: %s",
			valueStyle.Render(s.stats.Uptime.Round(time.Second).String()),
			valueStyle.Render(s.stats.LastCycle.Round(time.Millisecond).String()),
		)
}
