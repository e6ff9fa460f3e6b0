package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/blazedock/internal/magnify"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "bottom", cfg.Dock.Position)
	assert.Equal(t, 48, cfg.Dock.IconSize)
	assert.Equal(t, 8, cfg.Dock.Spacing)
	assert.Equal(t, 8, cfg.Dock.Margin)
	assert.Equal(t, 8, cfg.Dock.Padding)
	assert.False(t, cfg.Dock.ExclusiveZone)
	assert.True(t, cfg.Dock.ShowRunning)
	assert.True(t, cfg.Magnification.Enabled)
	assert.Equal(t, 1.5, cfg.Magnification.MaxScale)
	assert.Equal(t, 2.0, cfg.Magnification.InfluenceRadius)
	assert.Equal(t, "slots", cfg.Magnification.Unit)
	assert.Equal(t, 200*time.Millisecond, cfg.Magnification.AnimationDuration.Duration())
	assert.Equal(t, DefaultProfile, cfg.Profile.Active)
	assert.Len(t, cfg.Pinned, 4)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/blazedock.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	content := `
[dock]
position = "left"
icon_size = 64
spacing = 4
show_running = false

[magnification]
max_scale = 2.0
influence_radius = 120.0
unit = "pixels"
animation_duration = "350ms"

[[pinned]]
name = "Editor"
icon = "code"
command = "code"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "left", cfg.Dock.Position)
	assert.Equal(t, 64, cfg.Dock.IconSize)
	assert.Equal(t, 4, cfg.Dock.Spacing)
	assert.Equal(t, 8, cfg.Dock.Margin, "unset fields keep defaults")
	assert.False(t, cfg.Dock.ShowRunning)
	assert.Equal(t, 2.0, cfg.Magnification.MaxScale)
	assert.Equal(t, 120.0, cfg.Magnification.InfluenceRadius)
	assert.Equal(t, "pixels", cfg.Magnification.Unit)
	assert.Equal(t, 350*time.Millisecond, cfg.Magnification.AnimationDuration.Duration())
	assert.True(t, cfg.Magnification.Enabled)

	require.Len(t, cfg.Pinned, 1, "pinned list replaces defaults")
	assert.Equal(t, "Editor", cfg.Pinned[0].Name)
}

func TestLoad_PartialKeepsDefaultPinned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[dock]\nmargin = 0\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Dock.Margin)
	assert.Equal(t, DefaultPinnedApps(), cfg.Pinned)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[dock\nposition ="), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad position", "[dock]\nposition = \"middle\"", "invalid position"},
		{"icon too small", "[dock]\nicon_size = 8", "icon_size"},
		{"icon too large", "[dock]\nicon_size = 512", "icon_size"},
		{"negative spacing", "[dock]\nspacing = -1", "spacing"},
		{"negative margin", "[dock]\nmargin = -2", "margin"},
		{"bad unit", "[magnification]\nunit = \"inches\"", "unit"},
		{"unnamed pin", "[[pinned]]\ncommand = \"foo\"", "no name"},
		{"duplicate ids", "[[pinned]]\nid = \"A\"\nname = \"a\"\n[[pinned]]\nid = \"A\"\nname = \"b\"", "duplicate"},
		{"bad duration", "[magnification]\nanimation_duration = \"soon\"", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeOverDefaults_NestedDocument(t *testing.T) {
	var doc struct {
		Name     string `toml:"name"`
		Settings Config `toml:"settings"`
	}
	doc.Settings.Dock.IconSize = 999 // Stale values are reset to the defaults

	data := []byte(`
name = "laptop"

[settings.magnification]
max_scale = 2.0

[[settings.pinned]]
name = "Editor"
icon = "editor"
command = "code"
`)
	require.NoError(t, DecodeOverDefaults(data, &doc, &doc.Settings))

	assert.Equal(t, "laptop", doc.Name)
	assert.Equal(t, 48, doc.Settings.Dock.IconSize)
	assert.Equal(t, 2.0, doc.Settings.Magnification.MaxScale)
	require.Len(t, doc.Settings.Pinned, 1)
	assert.Equal(t, "Editor", doc.Settings.Pinned[0].Name)
}

func TestDecodeOverDefaults_KeepsDefaultPinnedAndValidates(t *testing.T) {
	var cfg Config
	require.NoError(t, DecodeOverDefaults([]byte("[dock]\nposition = \"left\"\n"), &cfg, &cfg))
	assert.Equal(t, DefaultPinnedApps(), cfg.Pinned)

	err := DecodeOverDefaults([]byte("[dock]\nposition = \"diagonal\"\n"), &cfg, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSanitize(t *testing.T) {
	t.Run("valid config untouched", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Empty(t, cfg.Sanitize())
		assert.True(t, cfg.Magnification.Enabled)
	})

	t.Run("max scale at or below one disables", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Magnification.MaxScale = 1.0
		warnings := cfg.Sanitize()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "max_scale")
		assert.False(t, cfg.Magnification.Enabled)
	})

	t.Run("non-positive radius disables", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Magnification.InfluenceRadius = 0
		warnings := cfg.Sanitize()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "influence_radius")
		assert.False(t, cfg.Magnification.Enabled)
	})

	t.Run("negative duration clamps to zero", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Magnification.AnimationDuration = Duration(-time.Second)
		warnings := cfg.Sanitize()
		require.Len(t, warnings, 1)
		assert.Equal(t, Duration(0), cfg.Magnification.AnimationDuration)
		assert.True(t, cfg.Magnification.Enabled)
	})

	t.Run("disabled config skips scale checks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Magnification.Enabled = false
		cfg.Magnification.MaxScale = 0.5
		assert.Empty(t, cfg.Sanitize())
	})
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ConfigFileName)

	cfg := DefaultConfig()
	cfg.Dock.Position = "top"
	cfg.Magnification.MaxScale = 1.8
	cfg.Magnification.AnimationDuration = Duration(120 * time.Millisecond)
	_, err := cfg.EnsurePinnedIDs()
	require.NoError(t, err)

	require.NoError(t, cfg.Save(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1.5s")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration())

	require.NoError(t, d.UnmarshalText([]byte("250")))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("later")))

	out, err := Duration(200 * time.Millisecond).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "200ms", string(out))

	data, err := toml.Marshal(struct {
		D Duration `toml:"d"`
	}{Duration(time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(data), "1s")
}

func TestMagnifyAndGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Magnification.Unit = "pixels"

	m := cfg.Magnify()
	assert.Equal(t, magnify.Config{
		Enabled:           true,
		MaxScale:          1.5,
		InfluenceRadius:   2,
		AnimationDuration: 200 * time.Millisecond,
	}, m)

	g := cfg.Geometry()
	assert.Equal(t, 48.0, g.IconSize)
	assert.Equal(t, 8.0, g.Spacing)
	assert.Equal(t, 8.0, g.Padding)
	assert.Equal(t, magnify.UnitPixels, g.Unit)
}

func TestPositions(t *testing.T) {
	assert.True(t, PositionLeft.IsVertical())
	assert.True(t, PositionRight.IsVertical())
	assert.False(t, PositionTop.IsVertical())
	assert.False(t, PositionBottom.IsVertical())
	assert.Len(t, ValidPositions(), 4)
}

func TestConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/blazedock-test")
	assert.Equal(t, "/tmp/blazedock-test", ConfigDir())
	assert.Equal(t, "/tmp/blazedock-test/blazedock.toml", ConfigPath())
	assert.Equal(t, "/tmp/blazedock-test/profiles", ProfilesDir())
}

func TestPinnedOperations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pinned = nil

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, cfg.AddPinned(PinnedApp{Name: name, Command: name}))
	}
	names := func() []string {
		var out []string
		for _, p := range cfg.Pinned {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Len(t, cfg.Pinned[0].ID, 26, "ULID assigned")
	assert.NotEqual(t, cfg.Pinned[0].ID, cfg.Pinned[1].ID)
	assert.Error(t, cfg.AddPinned(PinnedApp{}))

	require.NoError(t, cfg.MovePinned(0, 2))
	assert.Equal(t, []string{"b", "c", "a"}, names())

	require.NoError(t, cfg.MovePinned(2, 0))
	assert.Equal(t, []string{"a", "b", "c"}, names())

	removed, err := cfg.RemovePinned(1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)
	assert.Equal(t, []string{"a", "c"}, names())

	_, err = cfg.RemovePinned(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, cfg.MovePinned(-1, 0), ErrIndexOutOfRange)
	assert.ErrorIs(t, cfg.MovePinned(0, 2), ErrIndexOutOfRange)
}

func TestEnsurePinnedIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pinned[1].ID = "KEEP"

	changed, err := cfg.EnsurePinnedIDs()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "KEEP", cfg.Pinned[1].ID)
	for _, p := range cfg.Pinned {
		assert.NotEmpty(t, p.ID)
	}

	changed, err = cfg.EnsurePinnedIDs()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.Clone()
	c.Pinned[0].Name = "changed"
	c.Dock.IconSize = 99
	assert.Equal(t, "Firefox", cfg.Pinned[0].Name)
	assert.Equal(t, 48, cfg.Dock.IconSize)
}
