// Package layout converts between dock pixel space and magnification space.
// It builds the base slot layout fed to the magnification controller, maps
// pointer offsets back into that layout while icons are magnified, and turns
// per-slot scales into icon extents and offsets that never overlap.
package layout

import (
	"math"

	"github.com/jmylchreest/blazedock/internal/magnify"
)

// Geometry describes the dock row along its primary axis, in pixels.
type Geometry struct {
	IconSize float64      // Base icon extent
	Spacing  float64      // Gap between neighboring icons
	Padding  float64      // Space before the first icon
	Unit     magnify.Unit // Unit used for slot positions and the influence radius
}

// pitch is the base distance between neighboring icon starts.
func (g Geometry) pitch() float64 {
	return g.IconSize + g.Spacing
}

// SlotLayout returns the base layout of n slots in the geometry's unit.
func (g Geometry) SlotLayout(n int) magnify.Layout {
	l := make(magnify.Layout, n)
	for i := range l {
		if g.Unit == magnify.UnitPixels {
			l[i] = magnify.Slot{Position: g.baseCenter(i), Size: g.IconSize}
		} else {
			l[i] = magnify.Slot{Position: float64(i), Size: 1}
		}
	}
	return l
}

// baseCenter is the pixel center of slot i when nothing is magnified.
func (g Geometry) baseCenter(i int) float64 {
	return g.Padding + float64(i)*g.pitch() + g.IconSize/2
}

// toUnit converts a base pixel offset into the geometry's unit.
func (g Geometry) toUnit(px float64) float64 {
	if g.Unit == magnify.UnitPixels {
		return px
	}
	p := g.pitch()
	if p <= 0 {
		return 0
	}
	return (px - g.Padding - g.IconSize/2) / p
}

// PointerPosition maps a pointer offset in the currently displayed row back
// into base layout coordinates, in the geometry's unit.
//
// Each icon owns a cell that includes half the spacing on either side. A
// pointer at fraction f of a displayed cell maps to fraction f of the same
// cell at base size, so the mapping is continuous and does not feed the
// magnification back into itself. Outside the row, distances are unscaled.
func (g Geometry) PointerPosition(px float64, scales []float64) float64 {
	n := len(scales)
	if n == 0 {
		return g.toUnit(px)
	}

	offsets := g.Offsets(scales)
	half := g.Spacing / 2

	// The first cell starts at the same offset at any scale.
	if px < offsets[0]-half {
		return g.toUnit(px)
	}

	for i := range n {
		cellStart := offsets[i] - half
		cellWidth := g.IconSize*scales[i] + g.Spacing
		if px < cellStart+cellWidth || i == n-1 {
			baseStart := g.Padding + float64(i)*g.pitch() - half
			if cellWidth <= 0 {
				return g.toUnit(baseStart)
			}
			f := (px - cellStart) / cellWidth
			if f > 1 && i == n-1 {
				// Past the last cell: continue at base scale
				return g.toUnit(baseStart + g.pitch() + (px - cellStart - cellWidth))
			}
			return g.toUnit(baseStart + f*g.pitch())
		}
	}
	return g.toUnit(px)
}

// SlotAt returns the index of the icon cell containing the displayed pointer
// offset px, or -1 when px is outside the row.
func (g Geometry) SlotAt(px float64, scales []float64) int {
	offsets := g.Offsets(scales)
	half := g.Spacing / 2
	for i, s := range scales {
		start := offsets[i] - half
		end := offsets[i] + g.IconSize*s + half
		if px >= start && px < end {
			return i
		}
	}
	return -1
}

// Offsets returns the start offset of each icon when drawn at the given scales.
// Neighbors are pushed apart so that scaled icons never overlap.
func (g Geometry) Offsets(scales []float64) []float64 {
	out := make([]float64, len(scales))
	pos := g.Padding
	for i, s := range scales {
		out[i] = pos
		pos += g.IconSize*s + g.Spacing
	}
	return out
}

// Length returns the total row length at the given scales, padding included on both ends.
func (g Geometry) Length(scales []float64) float64 {
	if len(scales) == 0 {
		return 2 * g.Padding
	}
	total := 2 * g.Padding
	for _, s := range scales {
		total += g.IconSize * s
	}
	return total + g.Spacing*float64(len(scales)-1)
}

// Extents returns the pixel size of each icon at the given scales.
func (g Geometry) Extents(scales []float64) []int {
	out := make([]int, len(scales))
	for i, s := range scales {
		out[i] = int(math.Round(g.IconSize * s))
	}
	return out
}

// CrossExtent returns the size the row needs across its primary axis so that
// the largest magnified icon fits without resizing the surface.
func (g Geometry) CrossExtent(maxScale float64) int {
	if maxScale < 1 {
		maxScale = 1
	}
	return int(math.Ceil(g.IconSize*maxScale)) + int(2*g.Padding)
}
