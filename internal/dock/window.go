package dock

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/blazedock/internal/config"
)

// Namespace identifies the dock surface to the compositor.
const Namespace = "blazedock"

// Window hosts the dock row on a layer-shell surface.
type Window struct {
	window *gtk.ApplicationWindow
	row    *Row
	logger *slog.Logger
}

// NewWindow creates the dock window for row.
func NewWindow(app *gtk.Application, row *Row, cfg *config.Config, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Window{
		window: gtk.NewApplicationWindow(app),
		row:    row,
		logger: logger,
	}
	w.window.SetTitle("blazedock")
	w.window.SetDecorated(false)
	w.window.SetResizable(false)

	win := &w.window.Window
	layershell.InitForWindow(win)
	layershell.SetLayer(win, layershell.LayerShellLayerTop)
	layershell.SetNamespace(win, Namespace)
	// Take keyboard focus only when clicked so the dock never steals typing
	layershell.SetKeyboardMode(win, layershell.LayerShellKeyboardModeOnDemand)

	w.window.SetChild(row.Widget())
	w.Apply(cfg)
	return w
}

// Apply anchors the surface to the configured edge.
func (w *Window) Apply(cfg *config.Config) {
	win := &w.window.Window
	pos := config.Position(cfg.Dock.Position)

	edges := map[config.Position]layershell.LayerShellEdge{
		config.PositionLeft:   layershell.LayerShellEdgeLeft,
		config.PositionRight:  layershell.LayerShellEdgeRight,
		config.PositionTop:    layershell.LayerShellEdgeTop,
		config.PositionBottom: layershell.LayerShellEdgeBottom,
	}

	// Reset anchors and margins
	for _, edge := range edges {
		layershell.SetAnchor(win, edge, false)
		layershell.SetMargin(win, edge, 0)
	}

	edge, ok := edges[pos]
	if !ok {
		edge = layershell.LayerShellEdgeBottom
	}
	layershell.SetAnchor(win, edge, true)
	layershell.SetMargin(win, edge, cfg.Dock.Margin)

	if cfg.Dock.ExclusiveZone {
		layershell.AutoExclusiveZoneEnable(win)
	} else {
		layershell.SetExclusiveZone(win, 0) // Don't reserve space
	}

	w.logger.Debug("dock window anchored", "position", pos, "margin", cfg.Dock.Margin, "exclusive", cfg.Dock.ExclusiveZone)
}

// Reload applies a new configuration to the window and its row.
func (w *Window) Reload(cfg *config.Config) {
	w.Apply(cfg)
	w.row.Reload(cfg)
}

// Row returns the icon row.
func (w *Window) Row() *Row {
	return w.row
}

// Present shows the window.
func (w *Window) Present() {
	w.window.Present()
}

// Close closes the window.
func (w *Window) Close() {
	w.window.Close()
}
