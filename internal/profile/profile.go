// Package profile manages named dock configuration snapshots.
//
// Each profile is stored as a TOML file in the profiles directory, named
// after the profile key. The "default" profile always exists.
package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/blazedock/internal/config"
)

const fileExt = ".toml"

var (
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile does not exist")
	ErrDefaultProfile  = errors.New("cannot delete the default profile")
	ErrInvalidName     = errors.New("invalid profile name")
)

var validName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Meta describes a profile.
type Meta struct {
	Name        string     `toml:"name"`
	Description string     `toml:"description,omitempty"`
	Icon        string     `toml:"icon,omitempty"`
	CreatedAt   time.Time  `toml:"created_at"`
	LastUsed    *time.Time `toml:"last_used,omitempty"`
}

// Profile is a named configuration snapshot.
type Profile struct {
	Key      string        `toml:"-"` // File name without extension
	Meta     Meta          `toml:"meta"`
	Settings config.Config `toml:"settings"`
}

// Manager loads, stores and switches profiles.
type Manager struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	dir      string
	current  string
	profiles map[string]*Profile

	now func() time.Time
}

// NewManager creates a manager over dir. If dir is empty, the default
// profiles directory is used. Call Load before using it.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if dir == "" {
		dir = config.ProfilesDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:   logger,
		dir:      dir,
		current:  config.DefaultProfile,
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
}

// Dir returns the profiles directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ValidateName checks that name is usable as a profile key.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w %q: use lowercase letters, digits, '-' and '_'", ErrInvalidName, name)
	}
	return nil
}

// Load reads all profiles from disk and creates the default profile if it
// is missing. Unreadable profile files are skipped with a warning.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read profiles directory: %w", err)
	}

	m.profiles = make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), fileExt)
		if ValidateName(key) != nil {
			continue
		}

		p, err := m.readProfile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			m.logger.Warn("skipping unreadable profile", "name", key, "error", err)
			continue
		}
		p.Key = key
		m.profiles[key] = p
	}

	if _, ok := m.profiles[config.DefaultProfile]; !ok {
		now := m.now()
		p := &Profile{
			Key: config.DefaultProfile,
			Meta: Meta{
				Name:        "Default",
				Description: "Default dock configuration",
				Icon:        "user-home",
				CreatedAt:   now,
				LastUsed:    &now,
			},
			Settings: *config.DefaultConfig(),
		}
		if err := m.write(p); err != nil {
			return err
		}
		m.profiles[p.Key] = p
		m.logger.Info("created default profile", "dir", m.dir)
	}

	m.logger.Debug("loaded profiles", "count", len(m.profiles))
	return nil
}

func (m *Manager) readProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	p := &Profile{}
	if err := config.DecodeOverDefaults(data, p, &p.Settings); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return p, nil
}

// write saves a profile atomically. Caller holds the lock.
func (m *Manager) write(p *Profile) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	path := m.path(p.Key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

func (m *Manager) path(key string) string {
	return filepath.Join(m.dir, key+fileExt)
}

// Current returns the active profile key.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetCurrent records name as the active profile without touching its
// timestamps. Unknown names fall back to the default profile.
func (m *Manager) SetCurrent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[name]; ok {
		m.current = name
		return
	}
	m.current = config.DefaultProfile
}

// Create adds a new profile. If base is nil the default settings are used.
func (m *Manager) Create(name, description string, base *config.Config) error {
	return m.create(Meta{Name: name, Description: description}, base)
}

func (m *Manager) create(meta Meta, base *config.Config) error {
	name := meta.Name
	if err := ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; ok {
		return fmt.Errorf("%w: %s", ErrProfileExists, name)
	}

	settings := config.DefaultConfig()
	if base != nil {
		settings = base.Clone()
	}
	settings.Profile.Active = name
	meta.CreatedAt = m.now()

	p := &Profile{Key: name, Meta: meta, Settings: *settings}
	if err := m.write(p); err != nil {
		return err
	}
	m.profiles[name] = p
	m.logger.Info("created profile", "name", name)
	return nil
}

// Delete removes a profile. Deleting the current profile makes the
// default profile current.
func (m *Manager) Delete(name string) error {
	if name == config.DefaultProfile {
		return ErrDefaultProfile
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	if err := os.Remove(m.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("failed to remove profile file", "name", name, "error", err)
	}
	delete(m.profiles, name)

	if m.current == name {
		m.current = config.DefaultProfile
	}
	m.logger.Info("deleted profile", "name", name)
	return nil
}

// Switch makes name the current profile, records its last use and returns
// a copy of its settings.
func (m *Manager) Switch(name string) (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	now := m.now()
	p.Meta.LastUsed = &now
	if err := m.write(p); err != nil {
		m.logger.Warn("failed to record profile use", "name", name, "error", err)
	}
	m.current = name

	settings := p.Settings.Clone()
	settings.Profile.Active = name
	m.logger.Info("switched profile", "name", name)
	return settings, nil
}

// UpdateSettings replaces the stored settings of a profile.
func (m *Manager) UpdateSettings(name string, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	p.Settings = *cfg.Clone()
	p.Settings.Profile.Active = name
	return m.write(p)
}

// Duplicate copies src into a new profile dst.
func (m *Manager) Duplicate(src, dst string) error {
	if err := ValidateName(dst); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.profiles[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, src)
	}
	if _, ok := m.profiles[dst]; ok {
		return fmt.Errorf("%w: %s", ErrProfileExists, dst)
	}

	description := ""
	if source.Meta.Description != "" {
		description = source.Meta.Description + " (copy)"
	}

	p := &Profile{
		Key: dst,
		Meta: Meta{
			Name:        dst,
			Description: description,
			Icon:        source.Meta.Icon,
			CreatedAt:   m.now(),
		},
		Settings: *source.Settings.Clone(),
	}
	p.Settings.Profile.Active = dst

	if err := m.write(p); err != nil {
		return err
	}
	m.profiles[dst] = p
	m.logger.Info("duplicated profile", "from", src, "to", dst)
	return nil
}

// Get returns a copy of the named profile.
func (m *Manager) Get(name string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return clone(p), nil
}

// List returns copies of all profiles sorted by key.
func (m *Manager) List() []*Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

func clone(p *Profile) *Profile {
	c := *p
	c.Settings = *p.Settings.Clone()
	if p.Meta.LastUsed != nil {
		t := *p.Meta.LastUsed
		c.Meta.LastUsed = &t
	}
	return &c
}

type preset struct {
	name        string
	description string
	icon        string
	apply       func(*config.Config)
}

var presets = []preset{
	{
		name:        "work",
		description: "Minimal dock for focused work",
		icon:        "briefcase",
		apply: func(c *config.Config) {
			c.Dock.IconSize = 40
			c.Magnification.Enabled = false
		},
	},
	{
		name:        "gaming",
		description: "Out-of-the-way dock for gaming",
		icon:        "input-gaming",
		apply: func(c *config.Config) {
			c.Dock.Position = string(config.PositionLeft)
			c.Dock.IconSize = 40
			c.Magnification.AnimationDuration = 0
		},
	},
	{
		name:        "presentation",
		description: "Large icons for presentations",
		icon:        "video-display",
		apply: func(c *config.Config) {
			c.Dock.IconSize = 64
			c.Magnification.Enabled = true
			c.Magnification.MaxScale = 1.8
		},
	},
}

// PresetNames returns the names of the built-in presets.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// CreatePresets creates any built-in preset profile that does not exist yet
// and returns the names it created.
func (m *Manager) CreatePresets() ([]string, error) {
	var created []string
	for _, ps := range presets {
		settings := config.DefaultConfig()
		ps.apply(settings)

		err := m.create(Meta{Name: ps.name, Description: ps.description, Icon: ps.icon}, settings)
		if errors.Is(err, ErrProfileExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to create preset %s: %w", ps.name, err)
		}
		created = append(created, ps.name)
	}
	return created, nil
}
