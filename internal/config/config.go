// Package config resolves AirBoard runtime configuration from defaults,
// AIRBOARD_* environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ayusman/airboard/internal/gesture"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
	DefaultCameraID = 0
	DefaultFPS      = 30
)

// Setting keys persisted in the store's settings table.
const (
	KeyDwellThreshold    = "dwell_threshold"
	KeyBackspaceInterval = "backspace_interval_ms"
	KeySpaceInterval     = "space_interval_ms"
	KeyBrowserInterval   = "browser_interval_ms"
	KeyGoBackHold        = "go_back_hold_ms"
	KeyScrollUpBelow     = "scroll_up_below"
	KeyScrollDownAbove   = "scroll_down_above"
)

// TuningKeys lists every tuning setting key.
func TuningKeys() []string {
	return []string{
		KeyDwellThreshold,
		KeyBackspaceInterval,
		KeySpaceInterval,
		KeyBrowserInterval,
		KeyGoBackHold,
		KeyScrollUpBelow,
		KeyScrollDownAbove,
	}
}

// Config is the resolved runtime configuration.
type Config struct {
	Addr         string
	DataDir      string
	PluginDir    string
	WebDir       string
	CameraID     int
	CameraSource bool
	FPS          int
	Tray         bool
	LogLevel     string
	Mode         gesture.Mode
	Tuning       gesture.Config
}

// DBPath is the sqlite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "airboard.db")
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := ".airboard"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".airboard")
	}
	return Config{
		Addr:     DefaultAddr,
		DataDir:  dataDir,
		CameraID: DefaultCameraID,
		FPS:      DefaultFPS,
		LogLevel: DefaultLogLevel,
		Mode:     gesture.ModeKeyboard,
		Tuning:   gesture.DefaultConfig(),
	}
}

// Load resolves configuration from the process environment and args
// (without the program name).
func Load(args []string) (Config, error) {
	return LoadFrom(args, os.Getenv)
}

// LoadFrom is Load with an injectable environment lookup.
func LoadFrom(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("airboard", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the database and plugins")
	fs.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "plugin directory (default <data-dir>/plugins)")
	fs.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "static web UI directory")
	fs.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	fs.BoolVar(&cfg.CameraSource, "camera-source", cfg.CameraSource, "track hands from the local camera")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "camera source frames per second")
	fs.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show the system tray menu")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	mode := fs.String("mode", string(cfg.Mode), "initial mode: keyboard or browser")
	fs.IntVar(&cfg.Tuning.DwellThreshold, "dwell", cfg.Tuning.DwellThreshold, "hover frames needed to type a key")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Mode = gesture.Mode(*mode)
	if !cfg.Mode.Valid() {
		return Config{}, fmt.Errorf("config: unknown mode %q", *mode)
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	cfg.Tuning = cfg.Tuning.WithDefaults()

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("AIRBOARD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("AIRBOARD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("AIRBOARD_PLUGIN_DIR"); v != "" {
		c.PluginDir = v
	}
	if v := getenv("AIRBOARD_WEB_DIR"); v != "" {
		c.WebDir = v
	}
	if v := getenv("AIRBOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("AIRBOARD_MODE"); v != "" {
		c.Mode = gesture.Mode(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"AIRBOARD_CAMERA", &c.CameraID},
		{"AIRBOARD_FPS", &c.FPS},
		{"AIRBOARD_DWELL_THRESHOLD", &c.Tuning.DwellThreshold},
	}
	for _, e := range ints {
		v := getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.name, err)
		}
		*e.dst = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"AIRBOARD_CAMERA_SOURCE", &c.CameraSource},
		{"AIRBOARD_TRAY", &c.Tray},
	}
	for _, e := range bools {
		v := getenv(e.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", e.name, err)
		}
		*e.dst = b
	}

	return nil
}

// ErrScrollBound is returned for a scroll bound outside [0, 1] or an up
// bound above the down bound.
var ErrScrollBound = errors.New("scroll bound must be within [0, 1] and ordered")

// ApplySettings overrides tuning from stored settings. Unknown keys are
// ignored; a malformed value aborts with an error naming the key.
func ApplySettings(t gesture.Config, settings map[string]string) (gesture.Config, error) {
	for key, raw := range settings {
		switch key {
		case KeyDwellThreshold:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return t, fmt.Errorf("config: %s: %w", key, err)
			}
			t.DwellThreshold = n
		case KeyBackspaceInterval, KeySpaceInterval, KeyBrowserInterval, KeyGoBackHold:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return t, fmt.Errorf("config: %s: %w", key, err)
			}
			d := time.Duration(n) * time.Millisecond
			switch key {
			case KeyBackspaceInterval:
				t.BackspaceInterval = d
			case KeySpaceInterval:
				t.SpaceInterval = d
			case KeyBrowserInterval:
				t.BrowserInterval = d
			case KeyGoBackHold:
				t.GoBackHold = d
			}
		case KeyScrollUpBelow, KeyScrollDownAbove:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return t, fmt.Errorf("config: %s: %w", key, err)
			}
			if math.IsNaN(f) || f < 0 || f > 1 {
				return t, fmt.Errorf("config: %s: %w", key, ErrScrollBound)
			}
			if key == KeyScrollUpBelow {
				t.ScrollUpBelow = f
			} else {
				t.ScrollDownAbove = f
			}
		}
	}
	if t.ScrollUpBelow > 0 && t.ScrollDownAbove > 0 && t.ScrollUpBelow > t.ScrollDownAbove {
		return t, fmt.Errorf("config: %s above %s: %w", KeyScrollUpBelow, KeyScrollDownAbove, ErrScrollBound)
	}
	return t.WithDefaults(), nil
}

// TuningSettings renders tuning as settings-table values.
func TuningSettings(t gesture.Config) map[string]string {
	return map[string]string{
		KeyDwellThreshold:    strconv.Itoa(t.DwellThreshold),
		KeyBackspaceInterval: strconv.FormatInt(t.BackspaceInterval.Milliseconds(), 10),
		KeySpaceInterval:     strconv.FormatInt(t.SpaceInterval.Milliseconds(), 10),
		KeyBrowserInterval:   strconv.FormatInt(t.BrowserInterval.Milliseconds(), 10),
		KeyGoBackHold:        strconv.FormatInt(t.GoBackHold.Milliseconds(), 10),
		KeyScrollUpBelow:     strconv.FormatFloat(t.ScrollUpBelow, 'f', -1, 64),
		KeyScrollDownAbove:   strconv.FormatFloat(t.ScrollDownAbove, 'f', -1, 64),
	}
}
