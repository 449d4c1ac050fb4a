package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	"github.com/fd1az/defi-optimizer/pkg/ui/components"
)

// Config holds what the dashboard needs to know up front.
type Config struct {
	Title       string
	CurrentPool string
	// StaleAfter dims prices older than this.
	StaleAfter time.Duration
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	cfg  Config
	keys KeyMap
	help help.Model

	// Components
	prices        *components.PricesComponent
	yields        *components.YieldsComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready      bool
	quitting   bool
	paused     bool // freezes market and opportunity panels
	width      int
	height     int
	lastUpdate time.Time
	lastCycle  time.Time
	errors     []ErrorEntry // last 3
	logs       []string

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time

	activityFeed []string
}

// New creates a new TUI model.
func New(cfg Config) Model {
	if cfg.Title == "" {
		cfg.Title = "Solana DeFi Optimizer"
	}
	now := time.Now()
	return Model{
		cfg:           cfg,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		prices:        components.NewPricesComponent(cfg.StaleAfter),
		yields:        components.NewYieldsComponent(cfg.CurrentPool),
		opportunities: components.NewOpportunitiesComponent(50, 8),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		logs:          make([]string, 0, 10),
		errors:        make([]ErrorEntry, 0, 3),
		activityFeed:  make([]string, 0, 8),
		startupSteps:  defaultStartupSteps(),
		startupTime:   now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd drives animations and the welcome timeout.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Paused reports whether the panels are frozen.
func (m Model) Paused() bool {
	return m.paused
}

func (m Model) enterStartup() Model {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// the callback starts modules, which Send to this program; never block Update on it
	if OnStartModules != nil {
		go OnStartModules()
	}
	return m
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			return m.enterStartup(), tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
			m.activityFeed = m.activityFeed[:0]
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m = m.enterStartup()
		}
		return m, tickCmd()

	case OpportunityMsg:
		if msg.Opportunity == nil || m.paused {
			break
		}
		opp := msg.Opportunity
		m.opportunities.Add(components.OpportunityRow{
			ID:      opp.ID.String(),
			Time:    opp.DetectedAt.Format("15:04:05"),
			Kind:    string(opp.Kind),
			Summary: opp.Summary(),
		})
		m.lastUpdate = time.Now()

	case ExecutionMsg:
		if msg.Opportunity == nil || msg.Result == nil {
			break
		}
		res := msg.Result
		m.opportunities.SetStatus(msg.Opportunity.ID.String(), string(res.Status), res.IsAbandoned())
		m.activityFeed = addActivity(m.activityFeed, describeExecution(msg.Opportunity, res))
		m.lastUpdate = time.Now()

	case CycleMsg:
		stats := components.Stats{
			Cycles:        msg.Stats.Cycles,
			Opportunities: msg.Stats.Opportunities,
			Executions:    msg.Stats.Executions,
			Abandoned:     msg.Stats.Abandoned,
			Uptime:        msg.Stats.Uptime(time.Now()),
		}
		if msg.Report != nil {
			stats.LastCycle = msg.Report.Duration
			m.activityFeed = addActivity(m.activityFeed,
				fmt.Sprintf("Cycle #%d: %d opportunities", msg.Report.Number, len(msg.Report.Opportunities)))
		}
		m.stats.Update(stats)
		m.lastCycle = time.Now()
		m.lastUpdate = m.lastCycle
		m.startupComplete = true
		if m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}

	case PriceUpdateMsg:
		if m.paused {
			break
		}
		rows := make([]components.PriceRow, 0, len(msg.Prices))
		for _, p := range msg.Prices {
			rows = append(rows, components.PriceRow{
				Symbol: p.Symbol(),
				USD:    p.USD,
				Source: p.Source,
				Age:    p.Age(),
			})
		}
		m.prices.Update(rows)
		m.lastUpdate = time.Now()

	case YieldUpdateMsg:
		if m.paused {
			break
		}
		pools := make([]marketDomain.YieldPool, len(msg.Pools))
		copy(pools, msg.Pools)
		marketDomain.SortByAPY(pools)
		rows := make([]components.YieldRow, 0, len(pools))
		for _, p := range pools {
			rows = append(rows, components.YieldRow{Name: p.Name, APY: p.APY})
		}
		m.yields.Update(rows)
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error == nil {
			break
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
			step.Message = msg.Message
		}
		allDone := true
		for _, step := range m.startupSteps {
			if !step.Finished() {
				allDone = false
				break
			}
		}
		if allDone {
			m.startupComplete = true
		}
	}

	return m, nil
}

func describeExecution(opp *domain.Opportunity, res *domain.ExecutionResult) string {
	switch {
	case res.IsAbandoned():
		return fmt.Sprintf("%s %s abandoned: %s", opp.Kind, opp.ShortID(), res.Reason)
	case res.TxHash != "":
		return fmt.Sprintf("%s %s broadcast: %s", opp.Kind, opp.ShortID(), res.TxHash)
	default:
		return fmt.Sprintf("%s %s %s", opp.Kind, opp.ShortID(), res.Status)
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logs = append(logs, fmt.Sprintf("[%s] %s: %s", timestamp, level, message))
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	feed = append(feed, fmt.Sprintf("[%s] %s", timestamp, message))
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ◎ " + m.cfg.Title + " "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.prices.View() + "\n" + m.yields.View()
	rightCol := m.renderActivityFeed() + "\n\n" + m.opportunities.View()

	width := m.width
	if width == 0 {
		width = 120
	}
	if width > 100 {
		left := BoxStyle.Width(width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width - 4).Render(rightCol))
	}
	b.WriteString("\n")
	b.WriteString(BoxStyle.Width(width - 4).Render(m.stats.View()))
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, line := range m.logs {
		b.WriteString(MutedValue.Render("  " + line))
		b.WriteString("\n")
	}
	if len(m.logs) > 0 {
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("EXECUTION FEED"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for the first cycle..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		kind, _, _ := strings.Cut(activity, " ")
		style := KindStyle(kind)
		switch {
		case strings.Contains(activity, "abandoned"):
			style = NegativeValue
		case strings.Contains(activity, "Cycle #"):
			style = ActivityStyle
		}
		sb.WriteString(style.Render("  " + activity))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ███████╗ ██████╗ ██╗        ██████╗ ███████╗███████╗██╗
   ██╔════╝██╔═══██╗██║        ██╔══██╗██╔════╝██╔════╝██║
   ███████╗██║   ██║██║  ───── ██║  ██║█████╗  █████╗  ██║
   ╚════██║██║   ██║██║        ██║  ██║██╔══╝  ██╔══╝  ██║
   ███████║╚██████╔╝███████╗   ██████╔╝███████╗██║     ██║
   ╚══════╝ ╚═════╝ ╚══════╝   ╚═════╝ ╚══════╝╚═╝     ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("              S T R A T E G Y   O P T I M I Z E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("             swaps  ·  arbitrage  ·  yield"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStartupScreen() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  ◎ " + m.cfg.Title))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, name := range StartupOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case StepConnected, StepDone:
			icon, statusText, style = "✓", "Ready", PositiveValue
		case StepConnecting:
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Connecting...", connectingStyle
		case StepFailed:
			icon, statusText, style = "✗", "Failed", NegativeValue
		default:
			icon, statusText, style = "○", "Pending", MutedValue
		}

		line := fmt.Sprintf("  %s %s %s", style.Render(icon), MutedValue.Render(step.Name), style.Render(statusText))
		if step.Message != "" {
			line += MutedValue.Render("  " + step.Message)
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("  Waiting for the first strategy cycle..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastCycle) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, StatusConnected.Render(spinners[idx]+" Scanning"))
	}

	if cycles := m.stats.Stats().Cycles; cycles > 0 {
		parts = append(parts, PositiveValue.Render(fmt.Sprintf("Cycles: %d", cycles)))
	}

	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called once the welcome screen completes. main sets it
// to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run(cfg Config) error {
	Program = tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
