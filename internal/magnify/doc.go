// Package magnify implements the dock's hover magnification effect.
// A Controller maps a pointer position (or a keyboard-focused slot) to a
// per-slot scale factor using a raised-cosine falloff, and an Animator eases
// the displayed scales toward those targets frame by frame.
//
// Nothing in this package knows about the GUI toolkit. Bindings feed it
// positions in the same unit as the slot layout and read scales back.
package magnify
