package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controls is the part of the miner the panel drives.
type Controls interface {
	State() types.MiningState
	Toggle(ctx context.Context) error
	SetThreads(ctx context.Context, n int) error
}

const (
	defaultWidth = 80
	chartHeight  = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#F59E0B")).
			Padding(0, 2).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(18)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Padding(0, 2).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	chartStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9CA3AF"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(1, 2)
)

type keyMap struct {
	Less   key.Binding
	More   key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Less, k.More, k.Toggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Less: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "fewer threads"),
	),
	More: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "more threads"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "start/stop"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model of the panel.
type Model struct {
	ctl Controls

	state  types.MiningState
	stats  *types.StatsSnapshot
	charts *types.Charts
	chart  bool
	err    error

	width    int
	slider   progress.Model
	help     help.Model
	input    textinput.Model
	pending  chan promptResult
	quitting bool
}

// NewModel builds the panel. showCharts mirrors the chart flag; without it
// the chart area is hidden.
func NewModel(ctl Controls, showCharts bool) Model {
	in := textinput.New()
	in.Placeholder = "wallet passphrase"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'

	return Model{
		ctl:    ctl,
		chart:  showCharts,
		width:  defaultWidth,
		slider: progress.New(progress.WithSolidFill("#F59E0B"), progress.WithoutPercentage()),
		help:   help.New(),
		input:  in,
	}
}

// Init asks for the current state; later changes arrive as StateMsg.
func (m Model) Init() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		return StateMsg{ctl.State()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case StateMsg:
		m.state = msg.State
		return m, nil

	case StatsMsg:
		s := msg.Stats
		m.stats = &s
		return m, nil

	case ChartsMsg:
		c := msg.Charts
		m.charts = &c
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case passphraseRequestMsg:
		if m.pending != nil {
			msg.reply <- promptResult{err: fmt.Errorf("prompt busy: %w", mining.ErrUnlockDeclined)}
			return m, nil
		}
		m.pending = msg.reply
		m.input.Reset()
		return m, m.input.Focus()

	case tea.KeyMsg:
		if m.pending != nil {
			return m.updatePrompt(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Toggle):
			m.err = nil
			return m, m.run(m.ctl.Toggle)
		case key.Matches(msg, keys.Less):
			return m, m.setThreads(m.state.Threads - 1)
		case key.Matches(msg, keys.More):
			return m, m.setThreads(m.state.Threads + 1)
		}
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.pending <- promptResult{passphrase: m.input.Value()}
		m.closePrompt()
		return m, nil
	case tea.KeyEsc, tea.KeyCtrlC:
		m.pending <- promptResult{err: mining.ErrUnlockDeclined}
		m.closePrompt()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.pending = nil
	m.input.Reset()
	m.input.Blur()
}

func (m Model) setThreads(n int) tea.Cmd {
	if n < 0 || n > m.state.MaxThreads || n == m.state.Threads {
		return nil
	}
	return m.run(func(ctx context.Context) error {
		return m.ctl.SetThreads(ctx, n)
	})
}

// run calls fn off the bubbletea loop; the miner answers through StateMsg.
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.pending != nil {
		return m.promptView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Gapcoin mining"))
	b.WriteString("\n\n")

	your, network, next, status := "-", "-", "-", "Not Mining Gapcoin"
	if m.stats != nil {
		your = m.stats.YourHashrateText
		network = m.stats.NetworkHashrateText
		next = m.stats.NextBlockText
		status = m.stats.StatusText
	}
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Your hashrate:", your)
	row("Network hashrate:", network)
	row("Next block in:", next)

	percent := 0.0
	if m.state.MaxThreads > 0 {
		percent = float64(m.state.Threads) / float64(m.state.MaxThreads)
	}
	m.slider.Width = max(m.width-40, 10)
	row("Threads:", fmt.Sprintf("%s %d/%d", m.slider.ViewAs(percent), m.state.Threads, m.state.MaxThreads))

	button := "Start mining"
	if m.state.Mining {
		button = "Stop mining"
	}
	b.WriteString("\n")
	b.WriteString(buttonStyle.Render(button))
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	if m.chart {
		inner := max(m.width-4, 10)
		difficulty, hashrate := types.ChartSeries{Label: "Difficulty"}, types.ChartSeries{Label: "Hashrate Primes/s"}
		if m.charts != nil {
			difficulty, hashrate = m.charts.Difficulty, m.charts.Hashrate
		}
		b.WriteString(chartStyle.Render(renderSeries(difficulty, inner, chartHeight)))
		b.WriteString("\n")
		b.WriteString(chartStyle.Render(renderSeries(hashrate, inner, chartHeight)))
		b.WriteString("\n")
	}

	if m.err != nil && !errors.Is(m.err, mining.ErrUnlockDeclined) {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) promptView() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		"Unlock wallet to start mining",
		"",
		m.input.View(),
		"",
		"enter: unlock   esc: cancel",
	)
	return modalStyle.Render(body)
}
