// Package config loads the nested experiment configuration consumed by
// every tier of the voyage optimization pipeline: ship parameters and
// per-tier solver knobs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML configuration shape.
type Config struct {
	Ship       ShipConfig       `yaml:"ship"`
	StaticDet  StaticDetConfig  `yaml:"static_det"`
	DynamicDet DynamicDetConfig `yaml:"dynamic_det"`
	DynamicRH  DynamicRHConfig  `yaml:"dynamic_rh"`
	Collection CollectionConfig `yaml:"collection"`
}

// ShipConfig holds the physical ship parameters and the hard arrival deadline.
type ShipConfig struct {
	LengthM            float64    `yaml:"length_m"`
	BeamM              float64    `yaml:"beam_m"`
	DraftM             float64    `yaml:"draft_m"`
	DisplacementTonnes float64    `yaml:"displacement_tonnes"`
	BlockCoefficient   float64    `yaml:"block_coefficient"`
	RatedPowerKW       float64    `yaml:"rated_power_kw"`
	SpeedRangeKnots    [2]float64 `yaml:"speed_range_knots"`
	ETAHours           float64    `yaml:"eta_hours"`
}

// MinSpeed returns the engine's lower speed limit in knots.
func (s ShipConfig) MinSpeed() float64 { return s.SpeedRangeKnots[0] }

// MaxSpeed returns the engine's upper speed limit in knots.
func (s ShipConfig) MaxSpeed() float64 { return s.SpeedRangeKnots[1] }

// StaticDetConfig configures the segment-level LP planner (section 4.4).
type StaticDetConfig struct {
	Segments        int    `yaml:"segments"`
	WeatherSnapshot int    `yaml:"weather_snapshot"`
	SpeedChoices    int    `yaml:"speed_choices"`
	Optimizer       string `yaml:"optimizer"`
}

// DynamicDetConfig configures the Bellman DP planner (section 4.5).
type DynamicDetConfig struct {
	ForecastOrigin     int     `yaml:"forecast_origin"`
	TimeGranularity    float64 `yaml:"time_granularity"`
	SpeedGranularity   float64 `yaml:"speed_granularity"`
	MaxForecastHorizon *int    `yaml:"max_forecast_horizon"`
	Nodes              string  `yaml:"nodes"`          // "all" | "original"
	WeatherSource      string  `yaml:"weather_source"` // "predicted" | "actual"
}

// DynamicRHConfig configures the rolling-horizon driver (section 4.6).
type DynamicRHConfig struct {
	ReplanFrequencyHours float64 `yaml:"replan_frequency_hours"`
}

// CollectionConfig configures the (out-of-core) weather collector.
type CollectionConfig struct {
	Route           string  `yaml:"route"`
	IntervalNM      float64 `yaml:"interval_nm"`
	Hours           int     `yaml:"hours"`
	APIDelaySeconds float64 `yaml:"api_delay_seconds"`
}

// Default returns a Config with sensible defaults matching the reference
// "calm water" benchmark ship used throughout the test suite.
func Default() *Config {
	return &Config{
		Ship: ShipConfig{
			LengthM:            200.0,
			BeamM:              32.0,
			DraftM:             12.0,
			DisplacementTonnes: 50000.0,
			BlockCoefficient:   0.75,
			RatedPowerKW:       10000.0,
			SpeedRangeKnots:    [2]float64{8.0, 15.7},
			ETAHours:           100,
		},
		StaticDet: StaticDetConfig{
			Segments:        12,
			WeatherSnapshot: 0,
			SpeedChoices:    78,
			Optimizer:       "internal",
		},
		DynamicDet: DynamicDetConfig{
			ForecastOrigin:   0,
			TimeGranularity:  1.0,
			SpeedGranularity: 0.1,
			Nodes:            "all",
			WeatherSource:    "predicted",
		},
		DynamicRH: DynamicRHConfig{
			ReplanFrequencyHours: 6,
		},
		Collection: CollectionConfig{
			IntervalNM:      1.0,
			Hours:           48,
			APIDelaySeconds: 1,
		},
	}
}

// Load reads and parses a YAML config file, then validates it.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads and parses a YAML config file without validating it.
// Useful for debugging or printing a partially-specified config.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the invariants the core pipeline depends on.
func (c *Config) Validate() error {
	if c.Ship.MinSpeed() <= 0 || c.Ship.MaxSpeed() <= c.Ship.MinSpeed() {
		return fmt.Errorf("ship.speed_range_knots invalid: %v", c.Ship.SpeedRangeKnots)
	}
	if c.Ship.ETAHours <= 0 {
		return fmt.Errorf("ship.eta_hours must be positive, got %v", c.Ship.ETAHours)
	}
	if c.StaticDet.SpeedChoices < 1 {
		return fmt.Errorf("static_det.speed_choices must be >= 1, got %d", c.StaticDet.SpeedChoices)
	}
	if c.DynamicDet.TimeGranularity <= 0 {
		return fmt.Errorf("dynamic_det.time_granularity must be positive, got %v", c.DynamicDet.TimeGranularity)
	}
	if c.DynamicDet.SpeedGranularity <= 0 {
		return fmt.Errorf("dynamic_det.speed_granularity must be positive, got %v", c.DynamicDet.SpeedGranularity)
	}
	if c.DynamicDet.Nodes != "" && c.DynamicDet.Nodes != "all" && c.DynamicDet.Nodes != "original" {
		return fmt.Errorf("dynamic_det.nodes must be 'all' or 'original', got %q", c.DynamicDet.Nodes)
	}
	if c.DynamicDet.WeatherSource != "" && c.DynamicDet.WeatherSource != "predicted" && c.DynamicDet.WeatherSource != "actual" {
		return fmt.Errorf("dynamic_det.weather_source must be 'predicted' or 'actual', got %q", c.DynamicDet.WeatherSource)
	}
	if c.DynamicRH.ReplanFrequencyHours <= 0 {
		return fmt.Errorf("dynamic_rh.replan_frequency_hours must be positive, got %v", c.DynamicRH.ReplanFrequencyHours)
	}
	return nil
}
