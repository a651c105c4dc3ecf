package simulate

import (
	"path/filepath"
	"testing"

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

func straightRoute() *voyage.Route {
	return &voyage.Route{Waypoints: []voyage.Waypoint{
		{NodeID: 0, Lat: 0, Lon: 0, IsOriginal: true, CumulativeDistance: 0, Segment: 0},
		{NodeID: 1, Lat: 1, Lon: 0, IsOriginal: false, CumulativeDistance: 60, Segment: 0},
		{NodeID: 2, Lat: 2, Lon: 0, IsOriginal: true, CumulativeDistance: 120, Segment: 0},
	}}
}

func TestEngine_Run_AccumulatesFuelAndTime(t *testing.T) {
	e := New(benchmarkShip(), straightRoute())
	schedule := &voyage.SpeedSchedule{Entries: []voyage.ScheduleEntry{
		{LegIndex: 0, SourceNodeID: 0, Segment: 0, ReferenceSWS: 12, TargetSOG: 12},
	}}

	result, err := e.Run(schedule, map[int]voyage.Weather{}, 10)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.TotalFuelKg <= 0 {
		t.Errorf("expected positive total fuel, got %v", result.TotalFuelKg)
	}
	if result.TotalTimeH <= 0 {
		t.Errorf("expected positive total time, got %v", result.TotalTimeH)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(result.Rows))
	}
	if result.Rows[len(result.Rows)-1].CumDistanceNM != 120 {
		t.Errorf("expected cumulative distance 120, got %v", result.Rows[len(result.Rows)-1].CumDistanceNM)
	}
}

func TestEngine_Run_ClampsSWSToEngineLimits(t *testing.T) {
	ship := benchmarkShip()
	e := New(ship, straightRoute())
	schedule := &voyage.SpeedSchedule{Entries: []voyage.ScheduleEntry{
		{LegIndex: 0, SourceNodeID: 0, Segment: 0, ReferenceSWS: 100, TargetSOG: 100},
	}}

	result, err := e.Run(schedule, map[int]voyage.Weather{}, 10)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	for _, row := range result.Rows {
		if row.SWSKnots > ship.MaxSpeedKnots {
			t.Errorf("leg %d SWS %v exceeds max speed %v", row.Index, row.SWSKnots, ship.MaxSpeedKnots)
		}
	}
}

func TestEngine_Run_CountsSpeedChanges(t *testing.T) {
	e := New(benchmarkShip(), straightRoute())
	schedule := &voyage.SpeedSchedule{Entries: []voyage.ScheduleEntry{
		{LegIndex: 0, SourceNodeID: 0, Segment: 0, ReferenceSWS: 10, TargetSOG: 10},
		{LegIndex: 1, SourceNodeID: 1, Segment: 0, ReferenceSWS: 14, TargetSOG: 14},
	}}

	result, err := e.Run(schedule, map[int]voyage.Weather{}, 10)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.SpeedChanges != 1 {
		t.Errorf("SpeedChanges = %d, want 1", result.SpeedChanges)
	}
}

func TestEngine_Run_RejectsEmptySchedule(t *testing.T) {
	e := New(benchmarkShip(), straightRoute())
	if _, err := e.Run(&voyage.SpeedSchedule{}, nil, 10); err == nil {
		t.Error("expected error for empty schedule")
	}
}

func TestWriteTimeSeriesCSV(t *testing.T) {
	e := New(benchmarkShip(), straightRoute())
	schedule := &voyage.SpeedSchedule{Entries: []voyage.ScheduleEntry{
		{LegIndex: 0, SourceNodeID: 0, Segment: 0, ReferenceSWS: 12, TargetSOG: 12},
	}}
	result, err := e.Run(schedule, nil, 10)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "series.csv")
	if err := WriteTimeSeriesCSV(path, result.Rows); err != nil {
		t.Fatalf("WriteTimeSeriesCSV() error: %v", err)
	}
}
