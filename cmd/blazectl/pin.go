package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/config"
)

var pinOpts struct {
	icon    string
	command string
	format  string
}

// pinCmd represents the pin command group.
var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage pinned apps",
	Long: `Manage the apps pinned to the dock. Changes are written to the config
file and picked up by a running dock automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPinList(cmd, args)
	},
}

var pinListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pinned apps",
	RunE:  runPinList,
}

var pinAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Pin an app to the end of the dock",
	Example: `  blazectl pin add Editor --icon accessories-text-editor --command "gnome-text-editor"`,
	Args: cobra.ExactArgs(1),
	RunE: runPinAdd,
}

var pinRemoveCmd = &cobra.Command{
	Use:     "remove <index>",
	Aliases: []string{"rm"},
	Short:   "Unpin the app at an index",
	Args:    cobra.ExactArgs(1),
	RunE:    runPinRemove,
}

var pinMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move a pinned app to a new index",
	Args:  cobra.ExactArgs(2),
	RunE:  runPinMove,
}

func init() {
	pinCmd.AddCommand(pinListCmd, pinAddCmd, pinRemoveCmd, pinMoveCmd)

	pinAddCmd.Flags().StringVar(&pinOpts.icon, "icon", "",
		"Icon theme name (default: lowercased name)")
	pinAddCmd.Flags().StringVar(&pinOpts.command, "command", "",
		"Command line to launch (default: lowercased name)")
	pinListCmd.Flags().StringVarP(&pinOpts.format, "format", "f", "text",
		"Output format (text, json, yaml)")

	rootCmd.AddCommand(pinCmd)
}

// pinnedEntry is one pinned app in structured output.
type pinnedEntry struct {
	Index   int    `json:"index" yaml:"index"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string `json:"name" yaml:"name"`
	Icon    string `json:"icon" yaml:"icon"`
	Command string `json:"command" yaml:"command"`
}

func runPinList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if pinOpts.format != "text" {
		entries := make([]pinnedEntry, len(cfg.Pinned))
		for i, p := range cfg.Pinned {
			entries[i] = pinnedEntry{Index: i, ID: p.ID, Name: p.Name, Icon: p.Icon, Command: p.Command}
		}
		return writeStructured(cmd.OutOrStdout(), pinOpts.format, entries)
	}

	if len(cfg.Pinned) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pinned apps")
		return nil
	}
	rows := make([][]string, len(cfg.Pinned))
	for i, p := range cfg.Pinned {
		rows[i] = []string{strconv.Itoa(i), p.Name, p.Icon, p.Command}
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Name", "Icon", "Command"}, rows, -1))
	return nil
}

func runPinAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := newPinnedApp(args[0], pinOpts.icon, pinOpts.command)
	if err := cfg.AddPinned(app); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pinned %s at %d\n", app.Name, len(cfg.Pinned)-1)
	return nil
}

// newPinnedApp fills in icon and command from the name when they are empty.
func newPinnedApp(name, icon, command string) config.PinnedApp {
	slug := lowerSlug(name)
	if icon == "" {
		icon = slug
	}
	if command == "" {
		command = slug
	}
	return config.PinnedApp{Name: name, Icon: icon, Command: command}
}

// lowerSlug turns "Text Editor" into "text-editor".
func lowerSlug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func runPinRemove(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	removed, err := cfg.RemovePinned(index)
	if err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unpinned %s\n", removed.Name)
	return nil
}

func runPinMove(cmd *cobra.Command, args []string) error {
	from, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	to, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.MovePinned(from, to); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %d\n", cfg.Pinned[to].Name, to)
	return nil
}
