package magnify

import (
	"errors"
	"math"
)

// ErrInvalidIndex is returned when an item index is outside the layout.
var ErrInvalidIndex = errors.New("invalid item index")

// Slot is one fixed position in the dock's ordered row of items.
type Slot struct {
	Position float64 // Base position along the dock's primary axis
	Size     float64 // Base size along the same axis
}

// Layout is the ordered sequence of slots, in visual order.
type Layout []Slot

// Positions returns the base position of every slot.
func (l Layout) Positions() []float64 {
	out := make([]float64, len(l))
	for i, s := range l {
		out[i] = s.Position
	}
	return out
}

// Source identifies which reference drives the magnification.
type Source int

const (
	// SourceNone means nothing is hovered or focused.
	SourceNone Source = iota
	// SourcePointer means the last event was pointer motion.
	SourcePointer
	// SourceFocus means the last event was a keyboard focus change.
	SourceFocus
)

// String returns the source name used in logs and over D-Bus.
func (s Source) String() string {
	switch s {
	case SourcePointer:
		return "pointer"
	case SourceFocus:
		return "focus"
	default:
		return "none"
	}
}

// Controller computes per-slot magnification from the most recent pointer
// or focus event. Pointer and focus are mutually exclusive references: the
// latest event of either kind replaces the other.
//
// A Controller is not safe for concurrent use. It is meant to be driven from
// the thread that owns the dock's event loop.
type Controller struct {
	cfg    Config
	layout Layout

	source  Source
	ref     float64 // Reference position in layout units
	focused int     // Valid only when source == SourceFocus

	scales []float64 // Recomputed on every change
}

// NewController creates a controller for the given layout.
// The layout is copied; later changes by the caller are not observed.
func NewController(cfg Config, layout Layout) *Controller {
	c := &Controller{cfg: cfg}
	c.layout = append(Layout(nil), layout...)
	c.recompute()
	return c
}

// UpdatePointer records the pointer offset along the dock's primary axis.
// Positions outside the row need no special handling: distances simply grow
// until every slot decays to 1.0.
func (c *Controller) UpdatePointer(position float64) {
	if math.IsNaN(position) {
		return
	}
	c.source = SourcePointer
	c.ref = position
	c.recompute()
}

// ClearPointer removes the active hover or focus; all slots return to 1.0.
func (c *Controller) ClearPointer() {
	c.source = SourceNone
	c.recompute()
}

// SetFocusedIndex makes the base position of slot index the reference.
// With ok == false it clears magnification exactly like ClearPointer.
// Out-of-range indices are ignored; callers validate before invoking.
func (c *Controller) SetFocusedIndex(index int, ok bool) {
	if !ok {
		c.ClearPointer()
		return
	}
	if index < 0 || index >= len(c.layout) {
		return
	}
	c.source = SourceFocus
	c.focused = index
	c.ref = c.layout[index].Position
	c.recompute()
}

// FocusIndex is shorthand for SetFocusedIndex(index, true).
func (c *Controller) FocusIndex(index int) {
	c.SetFocusedIndex(index, true)
}

// ClearFocus is shorthand for SetFocusedIndex(0, false).
func (c *Controller) ClearFocus() {
	c.SetFocusedIndex(0, false)
}

// MoveFocus moves focus by delta slots and clamps at both ends. With nothing
// focused, a positive delta counts from before the first slot and a negative
// one from after the last. It reports false when there are no slots.
func (c *Controller) MoveFocus(delta int) bool {
	n := len(c.layout)
	if n == 0 {
		return false
	}

	var next int
	switch cur, ok := c.FocusedIndex(); {
	case ok:
		next = cur + delta
	case delta >= 0:
		next = delta - 1
	default:
		next = n + delta
	}
	c.FocusIndex(max(0, min(n-1, next)))
	return true
}

// ScaleFor returns the current scale of slot index.
// Out-of-range indices return 1.0 rather than failing.
func (c *Controller) ScaleFor(index int) float64 {
	if index < 0 || index >= len(c.scales) {
		return 1.0
	}
	return c.scales[index]
}

// AllScales returns the current scale of every slot in slot order.
// The returned slice is a copy owned by the caller.
func (c *Controller) AllScales() []float64 {
	return append([]float64(nil), c.scales...)
}

// Len returns the number of slots.
func (c *Controller) Len() int {
	return len(c.layout)
}

// Reference returns the active reference position and its source.
func (c *Controller) Reference() (float64, Source) {
	if c.source == SourceNone {
		return 0, SourceNone
	}
	return c.ref, c.source
}

// FocusedIndex returns the focused slot, if keyboard focus is the active reference.
func (c *Controller) FocusedIndex() (int, bool) {
	if c.source != SourceFocus {
		return 0, false
	}
	return c.focused, true
}

// Config returns the active configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// SetConfig replaces the configuration, e.g. after a live reload.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg
	c.recompute()
}

// SetLayout replaces the slot layout. A focused slot that no longer exists
// clears the focus; a focused slot that still exists follows its new position.
func (c *Controller) SetLayout(layout Layout) {
	c.layout = append(Layout(nil), layout...)
	if c.source == SourceFocus {
		if c.focused >= len(c.layout) {
			c.source = SourceNone
		} else {
			c.ref = c.layout[c.focused].Position
		}
	}
	c.recompute()
}

func (c *Controller) recompute() {
	if len(c.scales) != len(c.layout) {
		c.scales = make([]float64, len(c.layout))
	}
	active := c.source != SourceNone && c.cfg.Active()
	for i, slot := range c.layout {
		if !active {
			c.scales[i] = 1.0
			continue
		}
		c.scales[i] = Scale(slot.Position-c.ref, c.cfg)
	}
}
