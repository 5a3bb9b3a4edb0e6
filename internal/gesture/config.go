package gesture

import "time"

// Default tuning values.
const (
	DefaultDwellThreshold    = 30 // frames, about one second at 30 FPS
	DefaultBackspaceInterval = 500 * time.Millisecond
	DefaultSpaceInterval     = 800 * time.Millisecond
	DefaultBrowserInterval   = 300 * time.Millisecond
	DefaultGoBackHold        = 1000 * time.Millisecond
	DefaultScrollUpBelow     = 0.4
	DefaultScrollDownAbove   = 0.6
)

// Config holds the tunable thresholds of the hover detector and debouncers.
type Config struct {
	// DwellThreshold is the number of consecutive frames a key must be
	// pointed at before it is typed.
	DwellThreshold int `json:"dwell_threshold"`

	// BackspaceInterval is the minimum gap between fist-triggered backspaces.
	BackspaceInterval time.Duration `json:"backspace_interval"`

	// SpaceInterval is the minimum gap between peace-triggered spaces.
	SpaceInterval time.Duration `json:"space_interval"`

	// BrowserInterval is the minimum gap between any two browser actions.
	BrowserInterval time.Duration `json:"browser_interval"`

	// GoBackHold is how long a fist must be held for GoBack instead of ZoomOut.
	GoBackHold time.Duration `json:"go_back_hold"`

	// ScrollUpBelow and ScrollDownAbove bound the open-hand dead zone on the
	// normalized vertical axis.
	ScrollUpBelow   float64 `json:"scroll_up_below"`
	ScrollDownAbove float64 `json:"scroll_down_above"`
}

// DefaultConfig returns the tuning the workspace ships with.
func DefaultConfig() Config {
	return Config{
		DwellThreshold:    DefaultDwellThreshold,
		BackspaceInterval: DefaultBackspaceInterval,
		SpaceInterval:     DefaultSpaceInterval,
		BrowserInterval:   DefaultBrowserInterval,
		GoBackHold:        DefaultGoBackHold,
		ScrollUpBelow:     DefaultScrollUpBelow,
		ScrollDownAbove:   DefaultScrollDownAbove,
	}
}

// WithDefaults fills zero or invalid fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.DwellThreshold <= 0 {
		c.DwellThreshold = d.DwellThreshold
	}
	if c.BackspaceInterval <= 0 {
		c.BackspaceInterval = d.BackspaceInterval
	}
	if c.SpaceInterval <= 0 {
		c.SpaceInterval = d.SpaceInterval
	}
	if c.BrowserInterval <= 0 {
		c.BrowserInterval = d.BrowserInterval
	}
	if c.GoBackHold <= 0 {
		c.GoBackHold = d.GoBackHold
	}
	if !unitInterval(c.ScrollUpBelow) || !unitInterval(c.ScrollDownAbove) || c.ScrollUpBelow > c.ScrollDownAbove {
		c.ScrollUpBelow = d.ScrollUpBelow
		c.ScrollDownAbove = d.ScrollDownAbove
	}
	return c
}

// unitInterval reports whether v is in (0, 1]. NaN is rejected.
func unitInterval(v float64) bool {
	return v > 0 && v <= 1
}
