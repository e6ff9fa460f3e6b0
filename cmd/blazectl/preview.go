package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/tui"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview magnification in the terminal",
	Long: `Open an interactive terminal preview of the dock using the current
config. Hover with the mouse or move focus with the keyboard to watch the
magnification curve and tune it live.

Key bindings:
  ←/→, h/l    Move focus
  home/end    First / last item
  enter       Show the command an item would launch
  esc         Clear focus
  +/-         Raise / lower the maximum scale
  R/r         Widen / narrow the influence radius
  m           Toggle magnification
  ?           Show help
  q           Quit`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, warning := range cfg.Sanitize() {
		logger.Warn("config adjusted", "reason", warning)
	}
	return tui.Run(cfg)
}
