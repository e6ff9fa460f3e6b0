package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/blazedock/internal/dbus"
	"github.com/jmylchreest/blazedock/internal/profile"
)

var profileOpts struct {
	description string
	fromCurrent bool
	noReload    bool
}

// profileCmd represents the profile command group.
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage configuration profiles",
	Long: `Manage named configuration profiles.

A profile is a saved copy of the dock settings. Switching to a profile
writes its settings to the config file, which a running dock reloads.

Profiles are stored next to the config file in the profiles directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfileList(cmd, args)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a profile as TOML",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Long: `Create a profile from the default settings, or from the current config
file with --from-current. Names may contain lowercase letters, digits,
dashes and underscores.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Overwrite a profile with the current config",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSave,
}

var profileDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runProfileDelete,
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Apply a profile to the dock",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSwitch,
}

var profileDuplicateCmd = &cobra.Command{
	Use:   "duplicate <source> <name>",
	Short: "Copy a profile under a new name",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileDuplicate,
}

var profilePresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Create the built-in preset profiles",
	RunE:  runProfilePresets,
}

func init() {
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileSaveCmd,
		profileDeleteCmd, profileSwitchCmd, profileDuplicateCmd, profilePresetsCmd)

	profileCreateCmd.Flags().StringVarP(&profileOpts.description, "description", "d", "",
		"Profile description")
	profileCreateCmd.Flags().BoolVar(&profileOpts.fromCurrent, "from-current", false,
		"Start from the current config instead of the defaults")
	profileSwitchCmd.Flags().BoolVar(&profileOpts.noReload, "no-reload", false,
		"Do not ask a running dock to reload")

	rootCmd.AddCommand(profileCmd)
}

// profilesDir keeps profiles next to the config file in use.
func profilesDir() string {
	return filepath.Join(filepath.Dir(configPath()), "profiles")
}

// openProfiles loads the profile manager and marks the config's active
// profile as current.
func openProfiles() (*profile.Manager, error) {
	m := profile.NewManager(profilesDir(), logger)
	if err := m.Load(); err != nil {
		return nil, err
	}
	if cfg, err := loadConfig(); err == nil {
		m.SetCurrent(cfg.Profile.Active)
	}
	return m, nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}

	current := m.Current()
	highlight := -1
	var rows [][]string
	for i, p := range m.List() {
		lastUsed := "never"
		if p.Meta.LastUsed != nil {
			lastUsed = humanize.Time(*p.Meta.LastUsed)
		}
		marker := ""
		if p.Key == current {
			marker = "*"
			highlight = i
		}
		rows = append(rows, []string{marker, p.Key, p.Meta.Description, p.Settings.Dock.Position, lastUsed})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(),
		renderTable([]string{"", "Profile", "Description", "Position", "Last used"}, rows, highlight))
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	p, err := m.Get(args[0])
	if err != nil {
		return err
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}

	name := args[0]
	if profileOpts.fromCurrent {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		err = m.Create(name, profileOpts.description, cfg)
		if err != nil {
			return err
		}
	} else if err := m.Create(name, profileOpts.description, nil); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created profile %s\n", name)
	return nil
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	if err := m.UpdateSettings(name, cfg); errors.Is(err, profile.ErrProfileNotFound) {
		err = m.Create(name, "", cfg)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved current config to profile %s\n", name)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	if err := m.Delete(args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %s\n", args[0])
	return nil
}

func runProfileSwitch(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	settings, err := m.Switch(args[0])
	if err != nil {
		return err
	}
	if err := saveConfig(settings); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "switched to profile %s\n", args[0])

	if profileOpts.noReload {
		return nil
	}
	// The dock's file watcher also catches the write; an explicit reload
	// applies it without waiting for the debounce.
	err = withClient(func(ctx context.Context, c *dbus.Client) error {
		return c.ReloadConfig(ctx)
	})
	if errors.Is(err, dbus.ErrNotRunning) {
		logger.Debug("dock not running, skipped reload")
		return nil
	}
	if err != nil {
		logger.Warn("failed to reload dock", "error", err)
	}
	return nil
}

func runProfileDuplicate(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	if err := m.Duplicate(args[0], args[1]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "copied profile %s to %s\n", args[0], args[1])
	return nil
}

func runProfilePresets(cmd *cobra.Command, args []string) error {
	m, err := openProfiles()
	if err != nil {
		return err
	}
	created, err := m.CreatePresets()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(created) == 0 {
		_, _ = fmt.Fprintln(w, "all presets already exist")
		return nil
	}
	for _, name := range created {
		_, _ = fmt.Fprintf(w, "created profile %s\n", name)
	}
	return nil
}
