// Package tui implements a terminal preview of the dock magnification.
// It drives the same controller and animator as the GTK dock from mouse
// motion and key presses, so settings can be tuned without a compositor.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/blazedock/internal/config"
	"github.com/jmylchreest/blazedock/internal/layout"
	"github.com/jmylchreest/blazedock/internal/magnify"
)

const (
	cellWidth  = 8 // Base icon width in columns
	cellHeight = 4 // Base icon height in rows
	cellGap    = 2
	rowPadding = 2
	rowTop     = 2 // Title line plus a blank line

	frameInterval = time.Second / 60

	scaleStep  = 0.1
	radiusStep = 0.25
	maxScale   = 3.0
)

type tickMsg time.Time

// Model is the bubbletea model for the preview.
type Model struct {
	cfg  *config.Config
	apps []config.PinnedApp

	geom   layout.Geometry
	magCfg magnify.Config
	ctrl   *magnify.Controller
	anim   *magnify.Animator

	keys     KeyMap
	help     help.Model
	showHelp bool

	width, height int
	ticking       bool
	lastTick      time.Time
	status        string
}

// New creates a preview model for cfg.
func New(cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	geom := layout.Geometry{
		IconSize: cellWidth,
		Spacing:  cellGap,
		Padding:  rowPadding,
		Unit:     magnify.UnitSlots,
	}
	magCfg := previewConfig(cfg)

	return Model{
		cfg:    cfg,
		apps:   cfg.Pinned,
		geom:   geom,
		magCfg: magCfg,
		ctrl:   magnify.NewController(magCfg, geom.SlotLayout(len(cfg.Pinned))),
		anim:   magnify.NewAnimator(magCfg.AnimationDuration),
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

// previewConfig converts the dock settings to slot units, which is what the
// preview row is laid out in.
func previewConfig(cfg *config.Config) magnify.Config {
	mc := cfg.Magnify()
	if magnify.Unit(cfg.Magnification.Unit) == magnify.UnitPixels {
		pitch := float64(cfg.Dock.IconSize + cfg.Dock.Spacing)
		if pitch > 0 {
			mc.InfluenceRadius /= pitch
		}
	}
	return mc
}

// Init initializes the preview.
func (m Model) Init() tea.Cmd {
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.ctrl.MoveFocus(-1)
	case key.Matches(msg, m.keys.Next):
		m.ctrl.MoveFocus(1)
	case key.Matches(msg, m.keys.First):
		m.ctrl.FocusIndex(0)
	case key.Matches(msg, m.keys.Last):
		m.ctrl.FocusIndex(len(m.apps) - 1)
	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearFocus()
	case key.Matches(msg, m.keys.Activate):
		if idx, ok := m.ctrl.FocusedIndex(); ok {
			m.status = m.activateStatus(idx)
		}
		return m, nil
	case key.Matches(msg, m.keys.ScaleUp):
		m.magCfg.MaxScale = math.Min(maxScale, m.magCfg.MaxScale+scaleStep)
		m.ctrl.SetConfig(m.magCfg)
	case key.Matches(msg, m.keys.ScaleDown):
		m.magCfg.MaxScale = math.Max(1, m.magCfg.MaxScale-scaleStep)
		m.ctrl.SetConfig(m.magCfg)
	case key.Matches(msg, m.keys.RadiusUp):
		m.magCfg.InfluenceRadius += radiusStep
		m.ctrl.SetConfig(m.magCfg)
	case key.Matches(msg, m.keys.RadiusDown):
		m.magCfg.InfluenceRadius = math.Max(0, m.magCfg.InfluenceRadius-radiusStep)
		m.ctrl.SetConfig(m.magCfg)
	case key.Matches(msg, m.keys.Toggle):
		m.magCfg.Enabled = !m.magCfg.Enabled
		m.ctrl.SetConfig(m.magCfg)
	default:
		return m, nil
	}
	m.status = ""
	return m.wake()
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	top, bottom := m.rowSpan()
	inRow := msg.Y >= top && msg.Y < bottom

	switch msg.Action {
	case tea.MouseActionMotion:
		if inRow {
			m.ctrl.UpdatePointer(m.geom.PointerPosition(float64(msg.X), m.displayed()))
		} else if _, src := m.ctrl.Reference(); src == magnify.SourcePointer {
			m.ctrl.ClearPointer()
		} else {
			return m, nil
		}
		return m.wake()

	case tea.MouseActionRelease:
		if !inRow || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if idx := m.geom.SlotAt(float64(msg.X), m.displayed()); idx >= 0 {
			m.status = m.activateStatus(idx)
		}
	}
	return m, nil
}

func (m Model) activateStatus(idx int) string {
	app := m.apps[idx]
	return fmt.Sprintf("would launch %s (%s)", app.Name, app.Command)
}

// wake starts the frame ticker if the animation is idle.
func (m Model) wake() (tea.Model, tea.Cmd) {
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	m.lastTick = time.Time{}
	return m, tick()
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	dt := frameInterval
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick)
	}
	m.lastTick = now

	m.anim.Step(m.ctrl.AllScales(), dt)
	if m.anim.Settled() {
		m.ticking = false
		return m, nil
	}
	return m, tick()
}

// rowSpan returns the screen rows occupied by the icon row.
func (m Model) rowSpan() (int, int) {
	return rowTop, rowTop + m.rowHeight()
}

func (m Model) rowHeight() int {
	return int(math.Ceil(cellHeight * math.Max(1, m.magCfg.MaxScale)))
}

// displayed returns the scale currently drawn for every item.
func (m Model) displayed() []float64 {
	values := m.anim.Values()
	if len(values) != len(m.apps) {
		values = make([]float64, len(m.apps))
		for i := range values {
			values[i] = 1
		}
	}
	return values
}

// View renders the preview.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("blazedock preview"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.settingsLine()))
	b.WriteString("\n\n")

	b.WriteString(m.renderRow())
	b.WriteString("\n")
	b.WriteString(m.renderScales())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m Model) settingsLine() string {
	state := "on"
	if !m.magCfg.Active() {
		state = "off"
	}
	_, src := m.ctrl.Reference()
	return fmt.Sprintf("magnification %s · max %.2f · radius %.2f slots · source %s",
		state, m.magCfg.MaxScale, m.magCfg.InfluenceRadius, src)
}

func (m Model) renderRow() string {
	if len(m.apps) == 0 {
		return lipgloss.NewStyle().
			Height(m.rowHeight()).
			Foreground(lipgloss.Color("8")).
			Render("  no pinned apps")
	}

	scales := m.displayed()
	widths := m.geom.Extents(scales)
	focused, hasFocus := m.ctrl.FocusedIndex()

	parts := []string{strings.Repeat(" ", rowPadding)}
	for i, app := range m.apps {
		w := max(widths[i], 3)
		h := max(int(math.Round(cellHeight*scales[i])), 3)

		style := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Width(w - 2).
			Height(h - 2).
			Align(lipgloss.Center, lipgloss.Center)
		if hasFocus && i == focused {
			style = style.BorderForeground(lipgloss.Color("12"))
		}

		parts = append(parts, style.Render(iconLabel(app, w-2)))
		if i < len(m.apps)-1 {
			parts = append(parts, strings.Repeat(" ", cellGap))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
	return lipgloss.PlaceVertical(m.rowHeight(), lipgloss.Bottom, row)
}

// iconLabel abbreviates the app name to fit inside an icon box.
func iconLabel(app config.PinnedApp, width int) string {
	name := app.Name
	if name == "" {
		name = app.Icon
	}
	if width <= 0 {
		return ""
	}
	r := []rune(name)
	if len(r) > width {
		r = r[:width]
	}
	return string(r)
}

func (m Model) renderScales() string {
	scales := m.displayed()
	widths := m.geom.Extents(scales)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowPadding))
	for i, s := range scales {
		w := max(widths[i], 3)
		b.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Center, fmt.Sprintf("%.2f", s)))
		if i < len(scales)-1 {
			b.WriteString(strings.Repeat(" ", cellGap))
		}
	}
	return dimStyle.Render(b.String())
}

// Run starts the preview with the given configuration.
func Run(cfg *config.Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}
