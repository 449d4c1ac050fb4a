package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// OpportunityRow represents an opportunity in the list.
type OpportunityRow struct {
	ID      string
	Time    string
	Kind    string
	Summary string
	// Status is empty until the execution result arrives.
	Status string
	Failed bool
}

// OpportunitiesComponent renders the opportunities list, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent keeps up to maxRows and shows visible at a time.
func NewOpportunitiesComponent(maxRows, visible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: visible,
	}
}

// Add adds a new opportunity to the top of the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// SetStatus records the execution outcome for the row with id.
func (o *OpportunitiesComponent) SetStatus(id, status string, failed bool) bool {
	for i := range o.rows {
		if o.rows[i].ID == id {
			o.rows[i].Status = status
			o.rows[i].Failed = failed
			return true
		}
	}
	return false
}

// Len returns the number of stored rows.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset < len(o.rows)-o.visible {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9945FF"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#14F195"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d)", len(o.rows))) + "\n\n"
	if len(o.rows) == 0 {
		return result + dimStyle.Render("  No opportunities detected yet...")
	}

	end := o.offset + o.visible
	if o.visible <= 0 || end > len(o.rows) {
		end = len(o.rows)
	}
	for _, row := range o.rows[o.offset:end] {
		status := pendingStyle.Render("… pending")
		switch {
		case row.Failed:
			status = failStyle.Render("✗ " + row.Status)
		case row.Status != "":
			status = okStyle.Render("✓ " + row.Status)
		}
		result += fmt.Sprintf("  %s %-9s %s  %s\n",
			dimStyle.Render(row.Time), row.Kind, status, row.Summary)
	}
	if end < len(o.rows) {
		result += dimStyle.Render(fmt.Sprintf("  … %d more", len(o.rows)-end)) + "\n"
	}
	return result
}
