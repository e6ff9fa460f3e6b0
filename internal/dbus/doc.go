// Package dbus implements the io.github.jmylchreest.BlazeDock1 control
// interface. The dock exports a server that lets compositor keybindings and
// blazectl drive keyboard focus, launch pinned apps and read the current
// magnification scales. A matching client is used by blazectl.
package dbus
