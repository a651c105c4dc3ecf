// Package dynamicdp implements the node x time-slot Bellman DP planner: a
// sparse forward recursion over a dense waypoint lattice that picks, for
// every leg, the still-water speed minimizing cumulative fuel subject to
// arriving within a hard ETA, re-solved against a fresh forecast snapshot
// each time it is invoked.
package dynamicdp

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// WeatherGrid maps node id -> forecast hour -> weather, the DP's view of a
// single forecast snapshot issued at one sample hour.
type WeatherGrid map[int]map[int]voyage.Weather

// Problem is the DP transform's output.
type Problem struct {
	Route           *voyage.Route
	Speeds          []float64 // K evenly spaced speed-grid values (knots)
	FCR             []float64 // FCR[k] for Speeds[k]
	DeltaT          float64   // time-slot granularity, hours
	TimeOffset      float64   // elapsed hours already committed (0 for a fresh instance)
	WeatherGrid     WeatherGrid
	MaxForecastHour int
	Ship            physics.ShipParams
	ETAHours        float64 // remaining ETA for this instance
}

// Transform builds a Problem from a route, a weather grid sourced from
// predicted_weather at one sample hour (or degenerated to a single actual
// snapshot), and the config-driven speed grid.
func Transform(route *voyage.Route, grid WeatherGrid, maxForecastHour int, etaHours, timeOffset float64, deltaT, minSpeed, maxSpeed, speedGranularity float64, ship physics.ShipParams) (*Problem, error) {
	if len(route.Waypoints) < 2 {
		return nil, fmt.Errorf("route must have at least 2 waypoints")
	}
	if deltaT <= 0 {
		return nil, fmt.Errorf("deltaT must be positive, got %v", deltaT)
	}
	if speedGranularity <= 0 {
		return nil, fmt.Errorf("speedGranularity must be positive, got %v", speedGranularity)
	}

	numSpeeds := int(math.Round((maxSpeed-minSpeed)/speedGranularity)) + 1
	if numSpeeds < 1 {
		numSpeeds = 1
	}
	speeds := make([]float64, numSpeeds)
	for k := range speeds {
		speeds[k] = minSpeed + float64(k)*speedGranularity
	}
	fcr := make([]float64, numSpeeds)
	for k, v := range speeds {
		fcr[k] = physics.FuelConsumptionRate(v)
	}

	return &Problem{
		Route:           route,
		Speeds:          speeds,
		FCR:             fcr,
		DeltaT:          deltaT,
		TimeOffset:      timeOffset,
		WeatherGrid:     grid,
		MaxForecastHour: maxForecastHour,
		Ship:            ship,
		ETAHours:        etaHours,
	}, nil
}

// weatherAt resolves the weather for nodeID at the given (possibly
// fractional) forecast hour: rounds to the nearest integer key, clamps to
// [0, MaxForecastHour], falls back to the nearest available hour for that
// node, and finally to calm defaults if the node has no forecast at all.
func weatherAt(grid WeatherGrid, nodeID int, forecastHour float64, maxForecastHour int) physics.Weather {
	fh := int(math.Round(forecastHour))
	if fh > maxForecastHour {
		fh = maxForecastHour
	}
	if fh < 0 {
		fh = 0
	}

	byHour, ok := grid[nodeID]
	if !ok || len(byHour) == 0 {
		return physics.Calm
	}
	if w, ok := byHour[fh]; ok {
		return toPhysicsWeather(w)
	}

	// Nearest-available fallback.
	bestHour, bestDist := 0, math.MaxInt64
	for h := range byHour {
		d := h - fh
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			bestHour = h
		}
	}
	return toPhysicsWeather(byHour[bestHour])
}

func toPhysicsWeather(w voyage.Weather) physics.Weather {
	return physics.Weather{
		WindSpeedKmh:        w.WindSpeedKmh,
		WindDirectionDeg:    w.WindDirectionDeg,
		Beaufort:            w.Beaufort,
		WaveHeightM:         w.WaveHeightM,
		CurrentSpeedKmh:     w.CurrentSpeedKmh,
		CurrentDirectionDeg: w.CurrentDirectionDeg,
	}
}
