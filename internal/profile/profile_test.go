package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/blazedock/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(t.TempDir(), nil)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	require.NoError(t, m.Load())
	return m
}

func keys(ps []*Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Key
	}
	return out
}

func TestLoad_CreatesDefault(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, []string{"default"}, keys(m.List()))
	assert.FileExists(t, filepath.Join(m.Dir(), "default.toml"))
	assert.Equal(t, "default", m.Current())

	p, err := m.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "Default", p.Meta.Name)
	assert.NotNil(t, p.Meta.LastUsed)
	assert.Equal(t, config.DefaultConfig().Dock, p.Settings.Dock)
}

func TestLoad_ReadsExistingProfiles(t *testing.T) {
	m := newTestManager(t)
	base := config.DefaultConfig()
	base.Dock.Position = "top"
	base.Magnification.MaxScale = 2
	require.NoError(t, m.Create("laptop", "small screen", base))

	// A fresh manager over the same directory sees the saved profile
	m2 := NewManager(m.Dir(), nil)
	require.NoError(t, m2.Load())

	p, err := m2.Get("laptop")
	require.NoError(t, err)
	assert.Equal(t, "small screen", p.Meta.Description)
	assert.Equal(t, "top", p.Settings.Dock.Position)
	assert.Equal(t, 2.0, p.Settings.Magnification.MaxScale)
	assert.Equal(t, "laptop", p.Settings.Profile.Active)
	assert.Equal(t, base.Pinned, p.Settings.Pinned)
}

func TestLoad_SkipsBrokenFiles(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "broken.toml"), []byte("[meta\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "Bad Name.toml"), []byte(""), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0600))

	require.NoError(t, m.Load())
	assert.Equal(t, []string{"default"}, keys(m.List()))
}

func TestLoad_ProfileSettingsOverDefaults(t *testing.T) {
	m := newTestManager(t)
	data := []byte(`
[meta]
name = "Minimal"

[settings.dock]
icon_size = 32
`)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "minimal.toml"), data, 0600))
	invalid := []byte("[settings.dock]\nposition = \"diagonal\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "invalid.toml"), invalid, 0600))
	require.NoError(t, m.Load())

	p, err := m.Get("minimal")
	require.NoError(t, err)
	assert.Equal(t, 32, p.Settings.Dock.IconSize)
	assert.Equal(t, config.DefaultConfig().Magnification, p.Settings.Magnification)
	assert.Equal(t, config.DefaultPinnedApps(), p.Settings.Pinned)

	_, err = m.Get("invalid")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreate(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Create("work", "", nil))
	err := m.Create("work", "", nil)
	assert.ErrorIs(t, err, ErrProfileExists)

	for _, name := range []string{"", "Work", "my profile", "../etc", "a.b"} {
		assert.ErrorIs(t, m.Create(name, "", nil), ErrInvalidName, "name %q", name)
	}
}

func TestCreate_CopiesBase(t *testing.T) {
	m := newTestManager(t)
	base := config.DefaultConfig()
	require.NoError(t, m.Create("copy", "", base))

	base.Pinned[0].Name = "mutated"
	p, err := m.Get("copy")
	require.NoError(t, err)
	assert.Equal(t, "Firefox", p.Settings.Pinned[0].Name)
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("gone", "", nil))

	_, err := m.Switch("gone")
	require.NoError(t, err)
	assert.Equal(t, "gone", m.Current())

	require.NoError(t, m.Delete("gone"))
	assert.Equal(t, "default", m.Current(), "deleting current falls back to default")
	assert.NoFileExists(t, filepath.Join(m.Dir(), "gone.toml"))

	assert.ErrorIs(t, m.Delete("gone"), ErrProfileNotFound)
	assert.ErrorIs(t, m.Delete("default"), ErrDefaultProfile)
}

func TestSwitch(t *testing.T) {
	m := newTestManager(t)
	base := config.DefaultConfig()
	base.Dock.IconSize = 72
	require.NoError(t, m.Create("big", "", base))

	before, err := m.Get("big")
	require.NoError(t, err)
	assert.Nil(t, before.Meta.LastUsed)

	settings, err := m.Switch("big")
	require.NoError(t, err)
	assert.Equal(t, 72, settings.Dock.IconSize)
	assert.Equal(t, "big", settings.Profile.Active)
	assert.Equal(t, "big", m.Current())

	after, err := m.Get("big")
	require.NoError(t, err)
	require.NotNil(t, after.Meta.LastUsed)
	assert.True(t, after.Meta.LastUsed.After(after.Meta.CreatedAt))

	// Returned settings are a copy
	settings.Dock.IconSize = 16
	again, err := m.Get("big")
	require.NoError(t, err)
	assert.Equal(t, 72, again.Settings.Dock.IconSize)

	_, err = m.Switch("missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSetCurrent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("x", "", nil))

	m.SetCurrent("x")
	assert.Equal(t, "x", m.Current())
	m.SetCurrent("unknown")
	assert.Equal(t, "default", m.Current())
}

func TestDuplicate(t *testing.T) {
	m := newTestManager(t)
	base := config.DefaultConfig()
	base.Dock.Spacing = 2
	require.NoError(t, m.Create("src", "Original", base))

	require.NoError(t, m.Duplicate("src", "dst"))
	p, err := m.Get("dst")
	require.NoError(t, err)
	assert.Equal(t, "Original (copy)", p.Meta.Description)
	assert.Equal(t, 2, p.Settings.Dock.Spacing)
	assert.Equal(t, "dst", p.Settings.Profile.Active)
	assert.Nil(t, p.Meta.LastUsed)

	assert.ErrorIs(t, m.Duplicate("missing", "new"), ErrProfileNotFound)
	assert.ErrorIs(t, m.Duplicate("src", "dst"), ErrProfileExists)
	assert.ErrorIs(t, m.Duplicate("src", "No"), ErrInvalidName)
}

func TestUpdateSettings(t *testing.T) {
	m := newTestManager(t)
	cfg := config.DefaultConfig()
	cfg.Dock.Margin = 20
	require.NoError(t, m.UpdateSettings("default", cfg))

	p, err := m.Get("default")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Settings.Dock.Margin)

	bad := config.DefaultConfig()
	bad.Dock.Position = "diagonal"
	assert.Error(t, m.UpdateSettings("default", bad))
	assert.ErrorIs(t, m.UpdateSettings("nope", cfg), ErrProfileNotFound)
}

func TestCreatePresets(t *testing.T) {
	m := newTestManager(t)

	created, err := m.CreatePresets()
	require.NoError(t, err)
	assert.Equal(t, PresetNames(), created)
	assert.Equal(t, []string{"default", "gaming", "presentation", "work"}, keys(m.List()))

	work, err := m.Get("work")
	require.NoError(t, err)
	assert.Equal(t, 40, work.Settings.Dock.IconSize)
	assert.False(t, work.Settings.Magnification.Enabled)
	assert.Equal(t, "briefcase", work.Meta.Icon)

	gaming, err := m.Get("gaming")
	require.NoError(t, err)
	assert.Equal(t, "left", gaming.Settings.Dock.Position)

	pres, err := m.Get("presentation")
	require.NoError(t, err)
	assert.Equal(t, 64, pres.Settings.Dock.IconSize)
	assert.Equal(t, 1.8, pres.Settings.Magnification.MaxScale)

	// Existing presets are left alone
	created, err = m.CreatePresets()
	require.NoError(t, err)
	assert.Empty(t, created)
}
