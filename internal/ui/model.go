package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/fretune/internal/pitch"
	"github.com/0xlemi/fretune/internal/tuner"
)

const (
	// Gauge width in cells, odd so zero has a center cell
	gaugeWidth = 41

	// Volume meter width in cells
	meterWidth = 20
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))

	stringStyle = lipgloss.NewStyle().
			Padding(0, 1).
			MarginRight(1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555"))

	lockedStringStyle = stringStyle.
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				BorderForeground(lipgloss.Color("#7D56F4"))

	activeStringStyle = stringStyle.
				Bold(true).
				BorderForeground(lipgloss.Color("#00FF00"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}

	verdictColors = map[tuner.Verdict]string{
		tuner.VerdictPerfect:     "#00FF00",
		tuner.VerdictTuneUp:      "#FFFF00",
		tuner.VerdictTuneDown:    "#FFFF00",
		tuner.VerdictTooLow:      "#FFA500",
		tuner.VerdictTooHigh:     "#FFA500",
		tuner.VerdictExtremeLow:  "#FF0000",
		tuner.VerdictExtremeHigh: "#FF0000",
	}
)

// naturals in scale order, for the split color of a sharp
const naturals = "CDEFGAB"

func nextNatural(note string) string {
	i := strings.Index(naturals, note)
	if i < 0 {
		return naturals[:1]
	}
	return string(naturals[(i+1)%len(naturals)])
}

func noteBox(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(color)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333"))
}

// renderNote draws the note name. Sharps are split between the colors of
// the two naturals they sit between.
func renderNote(n pitch.Note) string {
	text := n.String()
	if !strings.HasSuffix(n.Name, "#") {
		return noteBox(noteColors[n.Name]).Padding(2, 4).Render(text)
	}

	base := n.Name[:1]
	left := noteBox(noteColors[base]).
		BorderLeft(true).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(2).
		PaddingBottom(2)
	right := noteBox(noteColors[nextNatural(base)]).
		BorderLeft(false).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(true).
		PaddingLeft(1).
		PaddingRight(2).
		PaddingTop(2).
		PaddingBottom(2)
	return lipgloss.JoinHorizontal(lipgloss.Top, left.Render(base), right.Render(text[1:]))
}

// gaugeNeedle maps cents in [-50, 50] onto a cell index of a gauge of width cells
func gaugeNeedle(cents float64, width int) int {
	c := tuner.ClampCents(cents)
	pos := int((c+tuner.MaxDisplayCents)/(2*tuner.MaxDisplayCents)*float64(width-1) + 0.5)
	return min(max(pos, 0), width-1)
}

func renderGauge(cents float64, verdict tuner.Verdict) string {
	needle := gaugeNeedle(cents, gaugeWidth)
	center := gaugeWidth / 2

	var b strings.Builder
	for i := 0; i < gaugeWidth; i++ {
		switch {
		case i == needle:
			b.WriteString("┃")
		case i == center:
			b.WriteString("┊")
		default:
			b.WriteString("─")
		}
	}

	style := infoStyle
	if color, ok := verdictColors[verdict]; ok {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return fmt.Sprintf("-50 %s +50", style.Render(b.String()))
}

func renderMeter(volume float64) string {
	filled := int(volume*meterWidth + 0.5)
	filled = min(max(filled, 0), meterWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}

// renderStrings draws the selector, lowest string on the left
func renderStrings(r tuner.FrameResult) string {
	cells := make([]string, 0, len(tuner.StandardTuning))
	for i, s := range tuner.StandardTuning {
		style := stringStyle
		switch {
		case r.Mode == tuner.ModeManual && i == r.ActiveIndex:
			style = lockedStringStyle
		case i == r.ActiveIndex:
			style = activeStringStyle
		}
		label := fmt.Sprintf("%d %s", tuner.StringNumber(i), s.Note)
		if i == r.DetectedIndex && i != r.ActiveIndex {
			label += "·"
		}
		cells = append(cells, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// tickMsg drives one pipeline pass. gen ties it to the listening period that
// scheduled it.
type tickMsg struct {
	gen int
}

// Model represents the UI state
type Model struct {
	session  *tuner.Session
	interval time.Duration
	gen      int
	result   tuner.FrameResult
	err      error
	width    int
	height   int
}

// NewModel creates a UI over session, ticking every interval while listening
func NewModel(session *tuner.Session, interval time.Duration) Model {
	return Model{
		session:  session,
		interval: interval,
		result:   session.Snapshot(),
	}
}

// Init schedules the first tick when the session is already listening
func (m Model) Init() tea.Cmd {
	if m.session.Mode().Active() {
		return m.tick()
	}
	return nil
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// command runs a session command and starts a new tick chain if it turned
// listening on.
func (m Model) command(run func() error) (Model, tea.Cmd) {
	wasActive := m.session.Mode().Active()
	m.err = run()
	m.result = m.session.Snapshot()

	isActive := m.session.Mode().Active()
	if wasActive != isActive {
		m.gen++
	}
	if !wasActive && isActive {
		return m, m.tick()
	}
	return m, nil
}

func (m Model) toggle() error {
	if m.session.Mode().Active() {
		return m.session.Stop()
	}
	return m.session.Start()
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.err = m.session.Stop()
			return m, tea.Quit
		case " ":
			return m.command(m.toggle)
		case "a":
			if m.session.Mode() != tuner.ModeManual {
				return m, nil
			}
			locked := m.session.LockedIndex()
			return m.command(func() error { return m.session.SelectTarget(locked) })
		case "1", "2", "3", "4", "5", "6":
			index := tuner.IndexForString(int(key[0] - '0'))
			return m.command(func() error { return m.session.SelectTarget(index) })
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if msg.gen != m.gen || !m.session.Mode().Active() {
			return m, nil
		}
		m.result, m.err = m.session.Tick()
		return m, m.tick()
	}

	return m, nil
}

func (m Model) status() string {
	r := m.result
	switch r.Mode {
	case tuner.ModeAuto:
		return "Listening (auto)"
	case tuner.ModeManual:
		if target, ok := r.Target(); ok {
			return fmt.Sprintf("Listening (locked to string %d, %s)", tuner.StringNumber(r.ActiveIndex), target.Label)
		}
		return "Listening (manual)"
	case tuner.ModeFailed:
		return "Microphone unavailable"
	default:
		return "Press space to start"
	}
}

// View renders the UI
func (m Model) View() string {
	r := m.result

	s := titleStyle.Render("fretune - Guitar Tuner")
	s += "\n"
	s += infoStyle.Render(m.status())
	s += "\n\n"
	s += renderStrings(r)
	s += "\n\n"

	if r.Note != nil {
		s += renderNote(*r.Note)
		s += "\n"
		info := fmt.Sprintf("Frequency: %.2f Hz | Cents: %+.1f | Jitter: %.1f",
			r.Frequency, r.Cents, r.Spread)
		s += infoStyle.Render(info)
	} else if r.Mode.Active() {
		s += infoStyle.Render("Listening for audio...")
	}
	s += "\n\n"

	verdict := r.Feedback()
	s += renderGauge(r.Cents, verdict)
	s += "\n"
	s += verdict.String()
	s += "\n\n"
	s += infoStyle.Render("Level " + renderMeter(r.Volume))

	if err := m.errorText(); err != "" {
		s += "\n\n"
		s += errorStyle.Render(err)
	}

	s += "\n\n"
	s += infoStyle.Render("space start/stop · 1-6 lock string · a auto · q quit")
	return s
}

func (m Model) errorText() string {
	if m.err != nil {
		return m.err.Error()
	}
	if err := m.session.Err(); err != nil {
		return err.Error()
	}
	return ""
}
