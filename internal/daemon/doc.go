// Package daemon provides the background plumbing of the blazedock process.
// It watches the dock configuration for edits, hands validated, sanitized
// snapshots to the UI thread, and raises desktop notifications for problems
// the user should see.
package daemon
