package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Limits for configuration values
const (
	MinWindowSize = 280.0
	MaxWindowSize = 4000.0
	MaxCapacity   = 100000
	// LaneDivisions is the number of lane spacings across the window.
	LaneDivisions = 14
)

// SpeedTiers holds the gap thresholds, in world units, at which a vehicle
// drops to a fraction of its base speed.
type SpeedTiers struct {
	Stop    float64 `json:"stop" yaml:"stop"`
	Quarter float64 `json:"quarter" yaml:"quarter"`
	Half    float64 `json:"half" yaml:"half"`
}

// Config holds the tuning constants of one simulation. A Config is fixed
// for the life of the World built from it.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	WindowSize float64 `json:"window_size" yaml:"window_size"`
	LongEdge   float64 `json:"long_edge" yaml:"long_edge"`
	ShortEdge  float64 `json:"short_edge" yaml:"short_edge"`
	// VerticalRadarWidth is the radar width for North/South travel.
	VerticalRadarWidth float64 `json:"vertical_radar_width" yaml:"vertical_radar_width"`

	HorizontalTiers SpeedTiers `json:"horizontal_tiers" yaml:"horizontal_tiers"`
	VerticalTiers   SpeedTiers `json:"vertical_tiers" yaml:"vertical_tiers"`

	MinBaseSpeed float64 `json:"min_base_speed" yaml:"min_base_speed"`
	MaxBaseSpeed float64 `json:"max_base_speed" yaml:"max_base_speed"`

	Capacity            int     `json:"capacity" yaml:"capacity"`
	CongestionThreshold int     `json:"congestion_threshold" yaml:"congestion_threshold"`
	ArrivalRadius       float64 `json:"arrival_radius" yaml:"arrival_radius"`
	DeadlockNudge       float64 `json:"deadlock_nudge" yaml:"deadlock_nudge"`
	SpawnMargin         float64 `json:"spawn_margin" yaml:"spawn_margin"`

	FrameIntervalMs int    `json:"frame_interval_ms" yaml:"frame_interval_ms"`
	SpawnIntervalMs int    `json:"spawn_interval_ms" yaml:"spawn_interval_ms"`
	Seed            uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultConfig returns the classic 800x800 intersection.
func DefaultConfig() *Config {
	return &Config{
		Name:        "classic",
		Description: "Classic 800x800 four-way intersection",

		WindowSize:         800,
		LongEdge:           43,
		ShortEdge:          33,
		VerticalRadarWidth: 31,

		HorizontalTiers: SpeedTiers{Stop: 3, Quarter: 30, Half: 39},
		VerticalTiers:   SpeedTiers{Stop: 3, Quarter: 20, Half: 39},
		MinBaseSpeed:    0.8,
		MaxBaseSpeed:    2.0,

		Capacity:            9999,
		CongestionThreshold: 3,
		ArrivalRadius:       20,
		DeadlockNudge:       1,
		SpawnMargin:         50,

		FrameIntervalMs: 16,
		SpawnIntervalMs: 100,
	}
}

// LineSpacing is the width of one lane on the grid.
func (c *Config) LineSpacing() float64 {
	return math.Floor(c.WindowSize / LaneDivisions)
}

// FrameInterval is the pacing between two ticks of a running session.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// SpawnInterval is the pacing between two automatic spawns.
func (c *Config) SpawnInterval() time.Duration {
	return time.Duration(c.SpawnIntervalMs) * time.Millisecond
}

// ValidateConfig checks that a configuration describes a drivable
// intersection.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.WindowSize < MinWindowSize || config.WindowSize > MaxWindowSize {
		return fmt.Errorf("config validation: window_size must be between %.0f and %.0f, got %g",
			MinWindowSize, MaxWindowSize, config.WindowSize)
	}

	if config.ShortEdge <= 0 || config.LongEdge <= config.ShortEdge {
		return fmt.Errorf("config validation: need 0 < short_edge < long_edge, got short=%g long=%g",
			config.ShortEdge, config.LongEdge)
	}
	if config.ShortEdge > config.LineSpacing() {
		return fmt.Errorf("config validation: short_edge %g does not fit a lane of %g",
			config.ShortEdge, config.LineSpacing())
	}
	if config.VerticalRadarWidth <= 0 || config.VerticalRadarWidth > config.ShortEdge {
		return fmt.Errorf("config validation: vertical_radar_width must be in (0, short_edge], got %g",
			config.VerticalRadarWidth)
	}

	for name, tiers := range map[string]SpeedTiers{
		"horizontal_tiers": config.HorizontalTiers,
		"vertical_tiers":   config.VerticalTiers,
	} {
		if tiers.Stop < 0 || tiers.Quarter < tiers.Stop || tiers.Half < tiers.Quarter {
			return fmt.Errorf("config validation: %s must satisfy 0 <= stop <= quarter <= half, got %+v", name, tiers)
		}
	}

	if config.MinBaseSpeed <= 0 || config.MaxBaseSpeed <= config.MinBaseSpeed {
		return fmt.Errorf("config validation: need 0 < min_base_speed < max_base_speed, got %g..%g",
			config.MinBaseSpeed, config.MaxBaseSpeed)
	}
	if config.MaxBaseSpeed >= config.ArrivalRadius {
		return fmt.Errorf("config validation: max_base_speed %g must be below arrival_radius %g",
			config.MaxBaseSpeed, config.ArrivalRadius)
	}

	if config.Capacity < 1 || config.Capacity > MaxCapacity {
		return fmt.Errorf("config validation: capacity must be between 1 and %d, got %d", MaxCapacity, config.Capacity)
	}
	if config.CongestionThreshold < 1 {
		return fmt.Errorf("config validation: congestion_threshold must be positive, got %d", config.CongestionThreshold)
	}
	if config.DeadlockNudge <= 0 {
		return fmt.Errorf("config validation: deadlock_nudge must be positive, got %g", config.DeadlockNudge)
	}
	if config.SpawnMargin < config.LongEdge {
		return fmt.Errorf("config validation: spawn_margin %g must be at least long_edge %g",
			config.SpawnMargin, config.LongEdge)
	}

	if config.FrameIntervalMs < 1 {
		return fmt.Errorf("config validation: frame_interval_ms must be positive, got %d", config.FrameIntervalMs)
	}
	if config.SpawnIntervalMs < 1 {
		return fmt.Errorf("config validation: spawn_interval_ms must be positive, got %d", config.SpawnIntervalMs)
	}

	return nil
}

// ParseConfig decodes a configuration. Files ending in .yaml or .yml are
// decoded strictly as YAML, everything else as JSON. Fields missing from
// the document keep their DefaultConfig values.
func ParseConfig(data []byte, filename string) (*Config, error) {
	config := DefaultConfig()
	config.Name = ""
	config.Description = ""

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	}
	return config, nil
}

// LoadConfig reads, decodes and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}
