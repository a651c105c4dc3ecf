package rollinghorizon

import (
	"testing"

	"github.com/amishafir/voyage-optimization/internal/dynamicdp"
	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

func benchmarkShip() physics.ShipParams {
	return physics.ShipParams{
		LengthM:            200,
		BeamM:              32,
		DraftM:             12,
		DisplacementTonnes: 50000,
		BlockCoefficient:   0.75,
		RatedPowerKW:       10000,
		MinSpeedKnots:      8.0,
		MaxSpeedKnots:      15.7,
	}
}

func fourNodeRoute() *voyage.Route {
	return &voyage.Route{Waypoints: []voyage.Waypoint{
		{NodeID: 0, Lat: 0, Lon: 0, IsOriginal: true, CumulativeDistance: 0, Segment: 0},
		{NodeID: 1, Lat: 0.3, Lon: 0, IsOriginal: false, CumulativeDistance: 20, Segment: 0},
		{NodeID: 2, Lat: 0.6, Lon: 0, IsOriginal: false, CumulativeDistance: 40, Segment: 0},
		{NodeID: 3, Lat: 1.0, Lon: 0, IsOriginal: true, CumulativeDistance: 60, Segment: 0},
	}}
}

func calmGrids() WeatherGrids {
	return WeatherGrids{
		BySampleHour:    map[int]dynamicdp.WeatherGrid{0: {}},
		MaxForecastHour: map[int]int{0: 24},
	}
}

func defaultConfig() Config {
	return Config{
		ReplanFrequencyHours: 2.0,
		DeltaT:               0.25,
		MinSpeedKnots:        8.0,
		MaxSpeedKnots:        15.7,
		SpeedGranularity:     1.0,
	}
}

func TestRun_ProducesContiguousGlobalSchedule(t *testing.T) {
	route := fourNodeRoute()
	result, err := Run(route, calmGrids(), 12.0, benchmarkShip(), defaultConfig())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Schedule.Entries) != len(route.Waypoints)-1 {
		t.Fatalf("schedule has %d entries, want %d", len(result.Schedule.Entries), len(route.Waypoints)-1)
	}
	if err := result.Schedule.Validate(route); err != nil {
		t.Errorf("schedule failed validation: %v", err)
	}
	for i, e := range result.Schedule.Entries {
		if e.LegIndex != i {
			t.Errorf("entry %d has leg index %d, want %d", i, e.LegIndex, i)
		}
	}
}

func TestRun_AppendsOneDecisionLogEntryPerEpoch(t *testing.T) {
	route := fourNodeRoute()
	result, err := Run(route, calmGrids(), 12.0, benchmarkShip(), defaultConfig())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.DecisionLog) == 0 {
		t.Fatalf("decision log is empty")
	}
	for i, dp := range result.DecisionLog {
		if dp.RemainingLegs < 0 {
			t.Errorf("log entry %d has negative remaining legs %d", i, dp.RemainingLegs)
		}
	}
}

func TestRun_ReplanFrequencyAboveETADegeneratesToSingleSolve(t *testing.T) {
	route := fourNodeRoute()
	cfg := defaultConfig()
	cfg.ReplanFrequencyHours = 1000.0
	result, err := Run(route, calmGrids(), 12.0, benchmarkShip(), cfg)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.DecisionLog) != 1 {
		t.Errorf("got %d decision epochs, want exactly 1 for a replan frequency beyond ETA", len(result.DecisionLog))
	}
}

func TestFreshestSampleHour_PicksLatestNotAfterElapsed(t *testing.T) {
	h, ok := freshestSampleHour([]int{0, 3, 6, 9}, 7.5)
	if !ok || h != 6 {
		t.Errorf("freshestSampleHour = %d, %v, want 6, true", h, ok)
	}
}

func TestFreshestSampleHour_FallsBackToSmallestWhenNoneQualify(t *testing.T) {
	h, ok := freshestSampleHour([]int{5, 10}, 1.0)
	if !ok || h != 5 {
		t.Errorf("freshestSampleHour = %d, %v, want 5, true", h, ok)
	}
}

func TestRun_RejectsNonPositiveReplanFrequency(t *testing.T) {
	route := fourNodeRoute()
	cfg := defaultConfig()
	cfg.ReplanFrequencyHours = 0
	if _, err := Run(route, calmGrids(), 12.0, benchmarkShip(), cfg); err == nil {
		t.Fatalf("Run() with zero replan frequency should error")
	}
}
