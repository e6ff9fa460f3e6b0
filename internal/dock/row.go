package dock

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/blazedock/internal/config"
	"github.com/jmylchreest/blazedock/internal/launcher"
	"github.com/jmylchreest/blazedock/internal/layout"
	"github.com/jmylchreest/blazedock/internal/magnify"
)

// nominalFrame is used for the first frame after the animation wakes up.
const nominalFrame = 16 * time.Millisecond

// ScalesCallback receives target scales whenever they change.
type ScalesCallback func(scales []float64)

// Row is the row of pinned app icons. All methods must be called on the
// GTK main thread.
type Row struct {
	logger   *slog.Logger
	launcher *launcher.Launcher

	cfg      *config.Config
	geom     layout.Geometry
	position config.Position
	apps     []config.PinnedApp

	ctrl *magnify.Controller
	anim *magnify.Animator

	// root carries the event controllers; box holds one slot per app,
	// each an icon plus its running indicator
	root  *gtk.Box
	box   *gtk.Box
	slots []*gtk.Box
	icons []*gtk.Image
	dots  []*gtk.Label

	builtFor  config.Position
	isRunning func(command string) bool

	tickID    uint
	lastFrame time.Time

	onScales      ScalesCallback
	onLaunchError func(app config.PinnedApp, err error)
}

// NewRow builds the icon row for cfg.
func NewRow(cfg *config.Config, l *launcher.Launcher, logger *slog.Logger) *Row {
	if logger == nil {
		logger = slog.Default()
	}
	if l == nil {
		l = launcher.New(logger)
	}

	r := &Row{
		logger:   logger,
		launcher: l,
		ctrl:     magnify.NewController(cfg.Magnify(), nil),
		anim:     magnify.NewAnimator(cfg.Magnify().AnimationDuration),
	}

	r.root = gtk.NewBox(gtk.OrientationHorizontal, 0)
	r.root.AddCSSClass("blazedock")
	r.root.SetFocusable(true)
	r.connectControllers()

	r.apply(cfg)
	return r
}

// Widget returns the top-level widget of the row.
func (r *Row) Widget() *gtk.Box {
	return r.root
}

// SetScalesCallback sets the callback invoked when target scales change.
func (r *Row) SetScalesCallback(cb ScalesCallback) {
	r.onScales = cb
}

// SetLaunchErrorCallback sets the callback invoked when an app fails to start.
func (r *Row) SetLaunchErrorCallback(cb func(app config.PinnedApp, err error)) {
	r.onLaunchError = cb
}

// Reload applies a new configuration snapshot.
func (r *Row) Reload(cfg *config.Config) {
	r.apply(cfg)
	r.targetsChanged()
}

func (r *Row) apply(cfg *config.Config) {
	r.cfg = cfg
	r.geom = cfg.Geometry()
	r.position = config.Position(cfg.Dock.Position)

	r.ctrl.SetConfig(cfg.Magnify())
	r.anim.SetDuration(cfg.Magnify().AnimationDuration)

	orientation := gtk.OrientationHorizontal
	if r.position.IsVertical() {
		orientation = gtk.OrientationVertical
	}

	if r.box == nil || r.builtFor != r.position || !samePinned(r.apps, cfg.Pinned) {
		r.rebuild(orientation, cfg.Pinned)
	}
	r.applyRunning()
	r.box.SetSpacing(cfg.Dock.Spacing)
	// Slot positions depend on the geometry as well as the item count
	r.ctrl.SetLayout(r.geom.SlotLayout(len(r.apps)))

	pad := cfg.Dock.Padding
	r.box.SetMarginStart(pad)
	r.box.SetMarginEnd(pad)
	r.box.SetMarginTop(pad)
	r.box.SetMarginBottom(pad)

	// Keep room for the largest icon so the surface does not grow on hover
	maxScale := 1.0
	if cfg.Magnify().Active() {
		maxScale = cfg.Magnification.MaxScale
	}
	cross := r.geom.CrossExtent(maxScale)
	if r.position.IsVertical() {
		r.root.SetSizeRequest(cross, -1)
	} else {
		r.root.SetSizeRequest(-1, cross)
	}

	r.alignIcons()
	r.render(r.displayed())
}

// rebuild recreates the icon widgets for apps.
func (r *Row) rebuild(orientation gtk.Orientation, apps []config.PinnedApp) {
	if r.box != nil {
		r.root.Remove(r.box)
	}

	r.box = gtk.NewBox(orientation, 0)
	r.box.SetHAlign(gtk.AlignCenter)
	r.box.SetVAlign(gtk.AlignCenter)
	r.root.SetOrientation(orientation)
	r.root.Append(r.box)

	// Slots stack the icon and its indicator across the dock's axis, with
	// the indicator on the screen edge side
	slotOrientation := gtk.OrientationVertical
	if orientation == gtk.OrientationVertical {
		slotOrientation = gtk.OrientationHorizontal
	}
	dotFirst := r.position == config.PositionTop || r.position == config.PositionLeft

	r.apps = append([]config.PinnedApp(nil), apps...)
	r.builtFor = r.position
	r.slots = make([]*gtk.Box, len(apps))
	r.icons = make([]*gtk.Image, len(apps))
	r.dots = make([]*gtk.Label, len(apps))
	for i, app := range apps {
		img := gtk.NewImageFromIconName(app.Icon)
		img.SetTooltipText(app.Name)
		img.AddCSSClass("dock-icon")

		// Hidden with opacity so the row does not shift when it appears
		dot := gtk.NewLabel("•")
		dot.AddCSSClass("running-indicator")
		dot.SetOpacity(0)

		slot := gtk.NewBox(slotOrientation, 0)
		if dotFirst {
			slot.Append(dot)
			slot.Append(img)
		} else {
			slot.Append(img)
			slot.Append(dot)
		}

		r.slots[i] = slot
		r.icons[i] = img
		r.dots[i] = dot
		r.box.Append(slot)
	}

	r.logger.Debug("dock row rebuilt", "items", len(apps), "orientation", orientation)
}

// alignIcons keeps magnified icons growing away from the screen edge.
func (r *Row) alignIcons() {
	for _, slot := range r.slots {
		switch r.position {
		case config.PositionBottom:
			slot.SetVAlign(gtk.AlignEnd)
		case config.PositionTop:
			slot.SetVAlign(gtk.AlignStart)
		case config.PositionLeft:
			slot.SetHAlign(gtk.AlignStart)
		case config.PositionRight:
			slot.SetHAlign(gtk.AlignEnd)
		}
	}
}

// UpdateRunning shows the running indicator for every app whose command
// isRunning reports. A nil func hides all indicators.
func (r *Row) UpdateRunning(isRunning func(command string) bool) {
	r.isRunning = isRunning
	r.applyRunning()
}

func (r *Row) applyRunning() {
	show := r.cfg != nil && r.cfg.Dock.ShowRunning && r.isRunning != nil
	for i, dot := range r.dots {
		if show && r.isRunning(r.apps[i].Command) {
			dot.SetOpacity(1)
		} else {
			dot.SetOpacity(0)
		}
	}
}

func samePinned(a, b []config.PinnedApp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (r *Row) connectControllers() {
	motion := gtk.NewEventControllerMotion()
	motion.ConnectMotion(func(x, y float64) {
		r.pointerMoved(r.axis(x, y))
	})
	motion.ConnectLeave(func() {
		// Leaving only cancels hover; keyboard focus stays
		if _, src := r.ctrl.Reference(); src == magnify.SourcePointer {
			r.ctrl.ClearPointer()
			r.targetsChanged()
		}
	})
	r.root.AddController(motion)

	click := gtk.NewGestureClick()
	click.SetButton(1)
	click.ConnectReleased(func(nPress int, x, y float64) {
		idx := r.geom.SlotAt(r.axis(x, y)-r.boxOffset(), r.displayed())
		if idx < 0 {
			return
		}
		if err := r.Activate(idx); err != nil {
			r.logger.Warn("failed to activate item", "index", idx, "error", err)
		}
	})
	r.root.AddController(click)

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		return r.handleKey(keyval)
	})
	r.root.AddController(keys)
}

// axis picks the coordinate along the dock's primary axis.
func (r *Row) axis(x, y float64) float64 {
	if r.position.IsVertical() {
		return y
	}
	return x
}

// boxOffset is the distance from the root's start to the icon box's start,
// less the padding that the geometry already accounts for.
func (r *Row) boxOffset() float64 {
	if r.box == nil {
		return 0
	}
	length := r.geom.Length(r.displayed())
	var avail float64
	if r.position.IsVertical() {
		avail = float64(r.root.Height())
	} else {
		avail = float64(r.root.Width())
	}
	if avail <= length {
		return 0
	}
	return (avail - length) / 2
}

func (r *Row) pointerMoved(px float64) {
	pos := r.geom.PointerPosition(px-r.boxOffset(), r.displayed())
	r.ctrl.UpdatePointer(pos)
	r.targetsChanged()
}

func (r *Row) handleKey(keyval uint) bool {
	prev, next := uint(gdk.KEY_Left), uint(gdk.KEY_Right)
	altPrev, altNext := uint(gdk.KEY_h), uint(gdk.KEY_l)
	if r.position.IsVertical() {
		prev, next = gdk.KEY_Up, gdk.KEY_Down
		altPrev, altNext = gdk.KEY_k, gdk.KEY_j
	}

	switch keyval {
	case prev, altPrev:
		_ = r.MoveFocus(-1)
	case next, altNext:
		_ = r.MoveFocus(1)
	case gdk.KEY_Home:
		_ = r.FocusIndex(0)
	case gdk.KEY_End:
		_ = r.FocusIndex(len(r.apps) - 1)
	case gdk.KEY_Return, gdk.KEY_KP_Enter, gdk.KEY_space:
		if idx, ok := r.ctrl.FocusedIndex(); ok {
			if err := r.Activate(idx); err != nil {
				r.logger.Warn("failed to activate item", "index", idx, "error", err)
			}
		}
	case gdk.KEY_Escape:
		r.ClearFocus()
	default:
		return false
	}
	return true
}

// FocusIndex moves keyboard focus to index.
func (r *Row) FocusIndex(index int) error {
	if index < 0 || index >= r.ctrl.Len() {
		return fmt.Errorf("%w: %d (dock has %d items)", magnify.ErrInvalidIndex, index, r.ctrl.Len())
	}
	r.ctrl.FocusIndex(index)
	r.targetsChanged()
	return nil
}

// MoveFocus moves keyboard focus by delta, clamped to the row.
func (r *Row) MoveFocus(delta int) error {
	if !r.ctrl.MoveFocus(delta) {
		return fmt.Errorf("%w: dock is empty", magnify.ErrInvalidIndex)
	}
	r.targetsChanged()
	return nil
}

// ClearFocus removes keyboard focus and magnification.
func (r *Row) ClearFocus() {
	r.ctrl.ClearFocus()
	r.targetsChanged()
}

// Activate launches the pinned app at index.
func (r *Row) Activate(index int) error {
	if index < 0 || index >= len(r.apps) {
		return fmt.Errorf("%w: %d (dock has %d items)", magnify.ErrInvalidIndex, index, len(r.apps))
	}
	app := r.apps[index]
	err := r.launcher.Launch(app)
	if err != nil && r.onLaunchError != nil {
		r.onLaunchError(app, err)
	}
	return err
}

// Scales returns the current target scales.
func (r *Row) Scales() []float64 {
	return r.ctrl.AllScales()
}

// State is a snapshot of what drives the row's magnification.
type State struct {
	Source  magnify.Source
	Focused int // -1 when nothing is focused
	Enabled bool
}

// State returns the current magnification state.
func (r *Row) State() State {
	_, src := r.ctrl.Reference()
	focused := -1
	if idx, ok := r.ctrl.FocusedIndex(); ok {
		focused = idx
	}
	return State{
		Source:  src,
		Focused: focused,
		Enabled: r.ctrl.Config().Active(),
	}
}

// targetsChanged publishes new targets and wakes the animation.
func (r *Row) targetsChanged() {
	if r.onScales != nil {
		r.onScales(r.ctrl.AllScales())
	}
	if r.tickID == 0 {
		r.lastFrame = time.Time{}
		r.tickID = r.root.AddTickCallback(r.tick)
	}
}

// tick advances the animation by one frame. It removes itself once every
// icon has reached its target.
func (r *Row) tick(_ gtk.Widgetter, _ gdk.FrameClocker) bool {
	now := time.Now()
	dt := nominalFrame
	if !r.lastFrame.IsZero() {
		dt = now.Sub(r.lastFrame)
	}
	r.lastFrame = now

	if r.anim.Step(r.ctrl.AllScales(), dt) {
		r.render(r.anim.Values())
	}

	if r.anim.Settled() {
		r.tickID = 0
		return false
	}
	return true
}

// displayed returns the scale currently drawn for every icon.
func (r *Row) displayed() []float64 {
	values := r.anim.Values()
	if len(values) != len(r.icons) {
		values = make([]float64, len(r.icons))
		for i := range values {
			values[i] = 1
		}
	}
	return values
}

// render sizes every icon for the displayed scales.
func (r *Row) render(scales []float64) {
	extents := r.geom.Extents(scales)
	for i, img := range r.icons {
		size := int(r.geom.IconSize)
		if i < len(extents) {
			size = extents[i]
		}
		img.SetPixelSize(size)
	}
}
