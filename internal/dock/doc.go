// Package dock implements the GTK4 dock surface.
// It binds the magnification controller to a row of pinned app icons,
// drives the easing animation from the widget frame clock, and hosts the
// row in a Wayland layer-shell window.
package dock
