// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "250ms" or "2s" parse.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Limits holds the safety envelope boundaries. Loaded once, immutable for
// the lifetime of a flight.
type Limits struct {
	MaxVelocity              float64  `yaml:"max_velocity"`
	MaxYawRate               float64  `yaml:"max_yaw_rate"`
	SafeAltitude             float64  `yaml:"safe_altitude"`
	MaxFollowingDistance     float64  `yaml:"max_following_distance"`
	MinSafeDistance          float64  `yaml:"min_safe_distance"`
	MaxFlightTime            Duration `yaml:"max_flight_time"`
	LowBatteryThreshold      float64  `yaml:"low_battery_threshold"`
	CriticalBatteryThreshold float64  `yaml:"critical_battery_threshold"`
	MaxAltitude              float64  `yaml:"max_altitude"`
	MinAltitude              float64  `yaml:"min_altitude"`
	EmergencyLandingAltitude float64  `yaml:"emergency_landing_altitude"`
	MinGPSSatellites         int      `yaml:"min_gps_satellites"`
	DetectionStaleTimeout    Duration `yaml:"detection_stale_timeout"`
	TelemetryStaleTimeout    Duration `yaml:"telemetry_stale_timeout"`
	DistanceGracePeriod      Duration `yaml:"distance_grace_period"`
}

// Selection tunes target scoring and continuity matching. Coordinates are
// normalized frame units, so target_match_radius is a fraction of frame
// width rather than pixels.
type Selection struct {
	MinConfidence        float64 `yaml:"min_confidence"`
	ConfidenceWeight     float64 `yaml:"confidence_weight"`
	SizeWeight           float64 `yaml:"size_weight"`
	CenterWeight         float64 `yaml:"center_weight"`
	ContinuityBonus      float64 `yaml:"continuity_bonus"`
	ConfidenceMargin     float64 `yaml:"confidence_margin"`
	TargetMatchRadius    float64 `yaml:"target_match_radius"`
	TargetLostFrameCount int     `yaml:"target_lost_frame_count"`
}

// Control tunes the tracking command generator.
type Control struct {
	FollowingDistance      float64 `yaml:"following_distance"`
	ReferenceDistance      float64 `yaml:"reference_distance"`
	ReferenceArea          float64 `yaml:"reference_area"`
	TargetVerticalPosition float64 `yaml:"target_vertical_position"`
	Deadband               float64 `yaml:"deadband"`
	ForwardGain            float64 `yaml:"forward_gain"`
	LateralGain            float64 `yaml:"lateral_gain"`
	VerticalGain           float64 `yaml:"vertical_gain"`
	YawGain                float64 `yaml:"yaw_gain"`
	CommandSmoothingFactor float64 `yaml:"command_smoothing_factor"`
}

// Rates sets loop cadences and dispatcher timing.
type Rates struct {
	ControlRateHz          float64  `yaml:"control_rate_hz"`
	TelemetryRateHz        float64  `yaml:"telemetry_rate_hz"`
	DetectionRateHz        float64  `yaml:"detection_rate_hz"`
	CommandReuseInterval   Duration `yaml:"command_reuse_interval"`
	CommandDegradeInterval Duration `yaml:"command_degrade_interval"`
	CommandAckTimeout      Duration `yaml:"command_ack_timeout"`
}

// Config is the root configuration for the control core.
type Config struct {
	Limits    Limits    `yaml:"limits"`
	Selection Selection `yaml:"selection"`
	Control   Control   `yaml:"control"`
	Rates     Rates     `yaml:"rates"`
}

// Default returns the configuration defaults documented in the test suite.
func Default() *Config {
	return &Config{
		Limits: Limits{
			MaxVelocity:              3.0,
			MaxYawRate:               45.0,
			SafeAltitude:             5.0,
			MaxFollowingDistance:     10.0,
			MinSafeDistance:          2.0,
			MaxFlightTime:            Duration(10 * time.Minute),
			LowBatteryThreshold:      20,
			CriticalBatteryThreshold: 10,
			MaxAltitude:              30.0,
			MinAltitude:              2.0,
			EmergencyLandingAltitude: 0.5,
			MinGPSSatellites:         6,
			DetectionStaleTimeout:    Duration(2 * time.Second),
			TelemetryStaleTimeout:    Duration(3 * time.Second),
			DistanceGracePeriod:      Duration(1500 * time.Millisecond),
		},
		Selection: Selection{
			MinConfidence:        0.5,
			ConfidenceWeight:     1.0,
			SizeWeight:           0.5,
			CenterWeight:         0.5,
			ContinuityBonus:      0.25,
			ConfidenceMargin:     0.2,
			TargetMatchRadius:    0.15,
			TargetLostFrameCount: 10,
		},
		Control: Control{
			FollowingDistance:      5.0,
			ReferenceDistance:      5.0,
			ReferenceArea:          0.13,
			TargetVerticalPosition: 0.5,
			Deadband:               0.1,
			ForwardGain:            0.6,
			LateralGain:            1.5,
			VerticalGain:           1.0,
			YawGain:                1.5,
			CommandSmoothingFactor: 0.7,
		},
		Rates: Rates{
			ControlRateHz:          20,
			TelemetryRateHz:        2,
			DetectionRateHz:        10,
			CommandReuseInterval:   Duration(250 * time.Millisecond),
			CommandDegradeInterval: Duration(time.Second),
			CommandAckTimeout:      Duration(3 * time.Second),
		},
	}
}

// Load reads the YAML config, validates it against the CUE schema, and
// applies defaults for unset fields.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects limit combinations that would make the envelope
// unsatisfiable.
func (c *Config) Validate() error {
	l := c.Limits
	if l.MaxVelocity <= 0 {
		return fmt.Errorf("max_velocity must be positive, got %v", l.MaxVelocity)
	}
	if l.MaxYawRate <= 0 {
		return fmt.Errorf("max_yaw_rate must be positive, got %v", l.MaxYawRate)
	}
	if l.MinAltitude >= l.MaxAltitude {
		return fmt.Errorf("min_altitude %v must be below max_altitude %v", l.MinAltitude, l.MaxAltitude)
	}
	if l.MinSafeDistance >= l.MaxFollowingDistance {
		return fmt.Errorf("min_safe_distance %v must be below max_following_distance %v", l.MinSafeDistance, l.MaxFollowingDistance)
	}
	if l.CriticalBatteryThreshold >= l.LowBatteryThreshold {
		return fmt.Errorf("critical_battery_threshold %v must be below low_battery_threshold %v", l.CriticalBatteryThreshold, l.LowBatteryThreshold)
	}
	if l.MinGPSSatellites < 0 {
		return fmt.Errorf("min_gps_satellites must not be negative, got %d", l.MinGPSSatellites)
	}
	s := c.Selection
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", s.MinConfidence)
	}
	if s.TargetLostFrameCount <= 0 {
		return fmt.Errorf("target_lost_frame_count must be positive, got %d", s.TargetLostFrameCount)
	}
	ct := c.Control
	if ct.CommandSmoothingFactor <= 0 || ct.CommandSmoothingFactor > 1 {
		return fmt.Errorf("command_smoothing_factor must be in (0,1], got %v", ct.CommandSmoothingFactor)
	}
	if ct.ReferenceArea <= 0 {
		return fmt.Errorf("reference_area must be positive, got %v", ct.ReferenceArea)
	}
	if c.Rates.ControlRateHz <= 0 {
		return fmt.Errorf("control_rate_hz must be positive, got %v", c.Rates.ControlRateHz)
	}
	return nil
}
