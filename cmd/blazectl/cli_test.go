package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/blazedock/internal/config"
)

// useTempConfig points the CLI at a config file in a temp dir.
func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	prev := globalOpts.configPath
	globalOpts.configPath = path
	t.Cleanup(func() { globalOpts.configPath = prev })
	setupLogger(io.Discard)
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestComputeScales_Focus(t *testing.T) {
	cfg := config.DefaultConfig()

	report, err := computeScales(cfg, 0, 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "focus", report.Source)
	assert.Equal(t, 1.0, report.Reference)
	require.Len(t, report.Items, 4)

	assert.Equal(t, "Files", report.Items[1].Name)
	assert.InDelta(t, 1.5, report.Items[1].Scale, 1e-9)
	// Neighbours at one slot sit halfway down the curve
	assert.InDelta(t, 1.25, report.Items[0].Scale, 1e-9)
	assert.InDelta(t, 1.25, report.Items[2].Scale, 1e-9)
	assert.InDelta(t, 1.0, report.Items[3].Scale, 1e-9)
}

func TestComputeScales_PointerAndNone(t *testing.T) {
	cfg := config.DefaultConfig()

	report, err := computeScales(cfg, 6, -1, 2.5, true)
	require.NoError(t, err)
	assert.Equal(t, "pointer", report.Source)
	require.Len(t, report.Items, 6)
	assert.Empty(t, report.Items[5].Name, "no pinned app beyond the list")
	assert.InDelta(t, report.Items[2].Scale, report.Items[3].Scale, 1e-9)

	report, err = computeScales(cfg, 0, -1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "none", report.Source)
	for _, item := range report.Items {
		assert.Equal(t, 1.0, item.Scale)
	}

	_, err = computeScales(cfg, 0, 9, 0, false)
	assert.Error(t, err)
}

func TestComputeScales_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Magnification.Enabled = false

	report, err := computeScales(cfg, 0, 0, 0, false)
	require.NoError(t, err)
	for _, item := range report.Items {
		assert.Equal(t, 1.0, item.Scale)
	}
}

func TestRenderScalesTable(t *testing.T) {
	report, err := computeScales(config.DefaultConfig(), 0, 0, 0, false)
	require.NoError(t, err)

	out := renderScalesTable(report)
	assert.Contains(t, out, "source: focus")
	assert.Contains(t, out, "Firefox")
	assert.Contains(t, out, "1.500")
}

func TestWriteStructured(t *testing.T) {
	report, err := computeScales(config.DefaultConfig(), 2, 0, 0, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, "json", report))
	var decoded scalesReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report, decoded)

	buf.Reset()
	require.NoError(t, writeStructured(&buf, "yaml", report))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "focus", fromYAML["source"])

	assert.Error(t, writeStructured(&buf, "xml", report))
}

func TestFormatScales(t *testing.T) {
	assert.Equal(t, "1.00 1.25 1.50", formatScales([]float64{1, 1.25, 1.5}))
	assert.Empty(t, formatScales(nil))
}

func TestParseIndex(t *testing.T) {
	i, err := parseIndex("3")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	for _, bad := range []string{"-1", "x", ""} {
		_, err := parseIndex(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewPinnedApp(t *testing.T) {
	app := newPinnedApp("Text Editor", "", "")
	assert.Equal(t, "text-editor", app.Icon)
	assert.Equal(t, "text-editor", app.Command)

	app = newPinnedApp("Code", "vscode", "code --new-window")
	assert.Equal(t, "vscode", app.Icon)
	assert.Equal(t, "code --new-window", app.Command)
}

func TestPinCommands(t *testing.T) {
	path := useTempConfig(t)
	cmd, out := testCommand()

	pinOpts.icon, pinOpts.command = "", ""
	require.NoError(t, runPinAdd(cmd, []string{"Editor"}))
	assert.Contains(t, out.String(), "pinned Editor at 4")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Pinned, 5)
	assert.Equal(t, "editor", cfg.Pinned[4].Command)
	assert.NotEmpty(t, cfg.Pinned[4].ID)

	require.NoError(t, runPinMove(cmd, []string{"4", "0"}))
	require.NoError(t, runPinRemove(cmd, []string{"1"}))

	cfg, err = config.Load(path)
	require.NoError(t, err)
	names := make([]string, len(cfg.Pinned))
	for i, p := range cfg.Pinned {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Editor", "Files", "Terminal", "Settings"}, names)

	assert.ErrorIs(t, runPinRemove(cmd, []string{"9"}), config.ErrIndexOutOfRange)
}

func TestPinList(t *testing.T) {
	useTempConfig(t)
	cmd, out := testCommand()

	pinOpts.format = "json"
	t.Cleanup(func() { pinOpts.format = "text" })
	require.NoError(t, runPinList(cmd, nil))

	var entries []pinnedEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "Terminal", entries[2].Name)
	assert.Equal(t, 2, entries[2].Index)
}

func TestConfigInit(t *testing.T) {
	path := useTempConfig(t)
	cmd, out := testCommand()

	require.NoError(t, configInitCmd.RunE(cmd, nil))
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), path)

	assert.Error(t, configInitCmd.RunE(cmd, nil), "refuses to overwrite")
}

func TestProfileSwitchWritesConfig(t *testing.T) {
	path := useTempConfig(t)
	cmd, out := testCommand()

	require.NoError(t, runProfilePresets(cmd, nil))
	assert.Contains(t, out.String(), "created profile work")

	profileOpts.noReload = true
	t.Cleanup(func() { profileOpts.noReload = false })
	require.NoError(t, runProfileSwitch(cmd, []string{"gaming"}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "left", cfg.Dock.Position)
	assert.Equal(t, "gaming", cfg.Profile.Active)

	m, err := openProfiles()
	require.NoError(t, err)
	assert.Equal(t, "gaming", m.Current())
	assert.DirExists(t, filepath.Join(filepath.Dir(path), "profiles"))
}
