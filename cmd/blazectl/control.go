package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/dbus"
)

var stateOpts struct {
	format string
}

var focusCmd = &cobra.Command{
	Use:   "focus <index>",
	Short: "Give keyboard focus to a dock item",
	Long: `Give keyboard focus to the item at the 0-based index. The focused item
becomes the magnification reference until the pointer moves again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.FocusItem(ctx, index)
		})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move keyboard focus to the next item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveFocus(1)
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move keyboard focus to the previous item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return moveFocus(-1)
	},
}

var unfocusCmd = &cobra.Command{
	Use:   "unfocus",
	Short: "Clear keyboard focus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.ClearFocus(ctx)
		})
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate <index>",
	Short: "Launch the dock item at an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.ActivateItem(ctx, index)
		})
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the dock to reload its config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.ReloadConfig(ctx)
		})
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the dock's magnification state",
	Long: `Show which reference drives magnification (pointer, focus or none),
the focused index, whether magnification is enabled, and the current
target scale of every item.`,
	RunE: runState,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print scales as the dock reports them",
	Long: `Subscribe to the dock's ScalesChanged signal and print one line per
update until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(focusCmd, nextCmd, prevCmd, unfocusCmd, activateCmd, reloadCmd, stateCmd, watchCmd)

	stateCmd.Flags().StringVarP(&stateOpts.format, "format", "f", "text",
		"Output format (text, json, yaml)")
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid index %q: must be a non-negative integer", s)
	}
	return index, nil
}

func moveFocus(delta int) error {
	return withClient(func(ctx context.Context, c *dbus.Client) error {
		return c.MoveFocus(ctx, delta)
	})
}

// dockState is the state command's output document.
type dockState struct {
	dbus.State `yaml:",inline"`
	Scales     []float64 `json:"scales" yaml:"scales"`
}

func runState(cmd *cobra.Command, args []string) error {
	var out dockState
	err := withClient(func(ctx context.Context, c *dbus.Client) error {
		state, err := c.GetState(ctx)
		if err != nil {
			return err
		}
		scales, err := c.GetScales(ctx)
		if err != nil {
			return err
		}
		out = dockState{State: state, Scales: scales}
		return nil
	})
	if err != nil {
		return err
	}

	switch stateOpts.format {
	case "json", "yaml":
		return writeStructured(cmd.OutOrStdout(), stateOpts.format, out)
	case "text":
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "source:  %s\n", out.Source)
		_, _ = fmt.Fprintf(w, "focused: %d\n", out.Focused)
		_, _ = fmt.Fprintf(w, "enabled: %t\n", out.Enabled)
		_, _ = fmt.Fprintf(w, "scales:  %s\n", formatScales(out.Scales))
		return nil
	default:
		return fmt.Errorf("unknown format %q", stateOpts.format)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	err = client.WatchScales(ctx, func(scales []float64) {
		_, _ = fmt.Fprintln(w, formatScales(scales))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
