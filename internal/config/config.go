// Package config handles dock configuration loading, validation and saving.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/blazedock/internal/layout"
	"github.com/jmylchreest/blazedock/internal/magnify"
)

const (
	// AppDirName is the directory name used under the XDG base directories.
	AppDirName = "blazedock"
	// ConfigFileName is the dock configuration file name.
	ConfigFileName = "blazedock.toml"
	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "BLAZEDOCK_CONFIG_DIR"
	// DefaultProfile is the profile that always exists.
	DefaultProfile = "default"
)

// ErrIndexOutOfRange is returned by pinned app operations given a bad index.
var ErrIndexOutOfRange = errors.New("pinned app index out of range")

// Config is the blazedock configuration.
// Loaded from ~/.config/blazedock/blazedock.toml
type Config struct {
	Dock          DockConfig          `toml:"dock"`
	Magnification MagnificationConfig `toml:"magnification"`
	Profile       ProfileConfig       `toml:"profile"`
	Pinned        []PinnedApp         `toml:"pinned"`
}

// DockConfig contains placement and sizing of the dock surface.
type DockConfig struct {
	Position      string `toml:"position"`       // "left", "right", "top", "bottom"
	IconSize      int    `toml:"icon_size"`      // Base icon size in pixels
	Spacing       int    `toml:"spacing"`        // Gap between icons in pixels
	Margin        int    `toml:"margin"`         // Distance from the screen edge
	Padding       int    `toml:"padding"`        // Space around the icon row
	ExclusiveZone bool   `toml:"exclusive_zone"` // Reserve screen space for the dock
	ShowRunning   bool   `toml:"show_running"`   // Mark apps that have a running process
}

// MagnificationConfig contains hover magnification settings.
type MagnificationConfig struct {
	Enabled           bool     `toml:"enabled"`
	MaxScale          float64  `toml:"max_scale"`          // e.g. 1.5 for 150%
	InfluenceRadius   float64  `toml:"influence_radius"`   // In the unit below
	Unit              string   `toml:"unit"`               // "slots" or "pixels"
	AnimationDuration Duration `toml:"animation_duration"` // e.g. "200ms"
}

// ProfileConfig records which profile the settings came from.
type ProfileConfig struct {
	Active string `toml:"active"`
}

// PinnedApp is one launcher in the dock.
type PinnedApp struct {
	ID      string `toml:"id,omitempty"` // ULID, stable across reorders
	Name    string `toml:"name"`
	Icon    string `toml:"icon"`    // Icon theme name
	Command string `toml:"command"` // Command line to launch
}

// Position represents the screen edge the dock is attached to.
type Position string

const (
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{PositionLeft, PositionRight, PositionTop, PositionBottom}
}

// IsVertical returns true if icons are stacked top to bottom.
func (p Position) IsVertical() bool {
	return p == PositionLeft || p == PositionRight
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dock: DockConfig{
			Position:      string(PositionBottom),
			IconSize:      48,
			Spacing:       8,
			Margin:        8,
			Padding:       8,
			ExclusiveZone: false,
			ShowRunning:   true,
		},
		Magnification: MagnificationConfig{
			Enabled:           true,
			MaxScale:          1.5,
			InfluenceRadius:   2,
			Unit:              string(magnify.UnitSlots),
			AnimationDuration: Duration(200 * time.Millisecond),
		},
		Profile: ProfileConfig{
			Active: DefaultProfile,
		},
		Pinned: DefaultPinnedApps(),
	}
}

// DefaultPinnedApps returns the launchers a fresh dock starts with.
func DefaultPinnedApps() []PinnedApp {
	return []PinnedApp{
		{Name: "Firefox", Icon: "firefox", Command: "firefox"},
		{Name: "Files", Icon: "org.gnome.Nautilus", Command: "nautilus"},
		{Name: "Terminal", Icon: "org.gnome.Terminal", Command: "gnome-terminal"},
		{Name: "Settings", Icon: "org.gnome.Settings", Command: "gnome-control-center"},
	}
}

// ConfigDir returns the blazedock configuration directory.
// BLAZEDOCK_CONFIG_DIR takes precedence over XDG_CONFIG_HOME.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// ProfilesDir returns the directory holding profile files.
func ProfilesDir() string {
	return filepath.Join(ConfigDir(), "profiles")
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := DecodeOverDefaults(data, cfg, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// DecodeOverDefaults resets cfg to the defaults, decodes data into doc and
// validates cfg. doc is the document being decoded and cfg the Config it
// carries, which may be doc itself. A [[pinned]] list in data replaces the
// default pinned apps instead of merging with them.
func DecodeOverDefaults(data []byte, doc any, cfg *Config) error {
	*cfg = *DefaultConfig()

	// Array tables would otherwise be merged with the default launchers
	cfg.Pinned = nil

	if err := toml.Unmarshal(data, doc); err != nil {
		return err
	}
	if cfg.Pinned == nil {
		cfg.Pinned = DefaultPinnedApps()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Save writes the configuration to the specified path atomically.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks structural settings. Magnification values are not
// validated here; Sanitize downgrades them instead of failing.
func (c *Config) Validate() error {
	validPos := false
	for _, p := range ValidPositions() {
		if c.Dock.Position == string(p) {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Dock.Position, ValidPositions())
	}

	if c.Dock.IconSize < 16 || c.Dock.IconSize > 256 {
		return fmt.Errorf("icon_size must be between 16 and 256, got %d", c.Dock.IconSize)
	}
	if c.Dock.Spacing < 0 || c.Dock.Spacing > 64 {
		return fmt.Errorf("spacing must be between 0 and 64, got %d", c.Dock.Spacing)
	}
	if c.Dock.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Dock.Margin)
	}
	if c.Dock.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", c.Dock.Padding)
	}

	validUnit := false
	for _, u := range magnify.ValidUnits() {
		if c.Magnification.Unit == string(u) {
			validUnit = true
			break
		}
	}
	if !validUnit {
		return fmt.Errorf("invalid magnification unit %q, must be one of: %v", c.Magnification.Unit, magnify.ValidUnits())
	}

	seen := make(map[string]bool)
	for i, app := range c.Pinned {
		if app.Name == "" {
			return fmt.Errorf("pinned app %d has no name", i)
		}
		if app.ID == "" {
			continue
		}
		if seen[app.ID] {
			return fmt.Errorf("duplicate pinned app id %q", app.ID)
		}
		seen[app.ID] = true
	}

	return nil
}

// Sanitize disables magnification when its settings cannot produce a valid
// effect, so a bad value never reaches the render loop. It returns one
// warning per adjustment.
func (c *Config) Sanitize() []string {
	var warnings []string
	m := &c.Magnification

	if m.AnimationDuration < 0 {
		warnings = append(warnings, fmt.Sprintf("animation_duration %s is negative, using 0", m.AnimationDuration.Duration()))
		m.AnimationDuration = 0
	}

	if !m.Enabled {
		return warnings
	}
	if math.IsNaN(m.MaxScale) || math.IsInf(m.MaxScale, 0) || m.MaxScale <= 1.0 {
		warnings = append(warnings, fmt.Sprintf("max_scale %v must be greater than 1.0, magnification disabled", m.MaxScale))
		m.Enabled = false
	}
	if math.IsNaN(m.InfluenceRadius) || math.IsInf(m.InfluenceRadius, 0) || m.InfluenceRadius <= 0 {
		warnings = append(warnings, fmt.Sprintf("influence_radius %v must be positive, magnification disabled", m.InfluenceRadius))
		m.Enabled = false
	}
	return warnings
}

// Magnify returns the controller configuration.
func (c *Config) Magnify() magnify.Config {
	return magnify.Config{
		Enabled:           c.Magnification.Enabled,
		MaxScale:          c.Magnification.MaxScale,
		InfluenceRadius:   c.Magnification.InfluenceRadius,
		AnimationDuration: c.Magnification.AnimationDuration.Duration(),
	}
}

// Geometry returns the row geometry along the dock's primary axis.
func (c *Config) Geometry() layout.Geometry {
	return layout.Geometry{
		IconSize: float64(c.Dock.IconSize),
		Spacing:  float64(c.Dock.Spacing),
		Padding:  float64(c.Dock.Padding),
		Unit:     magnify.Unit(c.Magnification.Unit),
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Pinned = append([]PinnedApp(nil), c.Pinned...)
	return &out
}

// NewPinnedID generates a new pinned app identifier.
func NewPinnedID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// EnsurePinnedIDs assigns an ID to every pinned app that lacks one.
// Returns true if any ID was added.
func (c *Config) EnsurePinnedIDs() (bool, error) {
	changed := false
	for i := range c.Pinned {
		if c.Pinned[i].ID != "" {
			continue
		}
		id, err := NewPinnedID()
		if err != nil {
			return changed, err
		}
		c.Pinned[i].ID = id
		changed = true
	}
	return changed, nil
}

// AddPinned appends a launcher, assigning it an ID if needed.
func (c *Config) AddPinned(app PinnedApp) error {
	if app.Name == "" {
		return errors.New("pinned app needs a name")
	}
	if app.ID == "" {
		id, err := NewPinnedID()
		if err != nil {
			return err
		}
		app.ID = id
	}
	c.Pinned = append(c.Pinned, app)
	return nil
}

// RemovePinned removes and returns the launcher at index.
func (c *Config) RemovePinned(index int) (PinnedApp, error) {
	if index < 0 || index >= len(c.Pinned) {
		return PinnedApp{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	removed := c.Pinned[index]
	c.Pinned = append(c.Pinned[:index], c.Pinned[index+1:]...)
	return removed, nil
}

// MovePinned moves the launcher at from so that it ends up at index to.
func (c *Config) MovePinned(from, to int) error {
	n := len(c.Pinned)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	app := c.Pinned[from]
	c.Pinned = append(c.Pinned[:from], c.Pinned[from+1:]...)
	c.Pinned = append(c.Pinned[:to], append([]PinnedApp{app}, c.Pinned[to:]...)...)
	return nil
}
