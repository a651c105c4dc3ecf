package voyage

import "testing"

func TestRoute_NumSegments(t *testing.T) {
	r := &Route{Waypoints: []Waypoint{
		{NodeID: 0, IsOriginal: true, Segment: 0},
		{NodeID: 1, IsOriginal: false, Segment: 0},
		{NodeID: 2, IsOriginal: true, Segment: 1, CumulativeDistance: 10},
		{NodeID: 3, IsOriginal: true, Segment: 0, CumulativeDistance: 20},
	}}
	if got := r.NumSegments(); got != 2 {
		t.Errorf("NumSegments() = %d, want 2", got)
	}
}

func TestRoute_Validate_RejectsNonZeroStart(t *testing.T) {
	r := &Route{Waypoints: []Waypoint{
		{NodeID: 0, IsOriginal: true, CumulativeDistance: 5, Segment: 0},
		{NodeID: 1, IsOriginal: true, CumulativeDistance: 10, Segment: 0},
	}}
	if err := r.Validate(); err == nil {
		t.Error("expected error for nonzero start distance")
	}
}

func TestRoute_Validate_RejectsDecreasingDistance(t *testing.T) {
	r := &Route{Waypoints: []Waypoint{
		{NodeID: 0, IsOriginal: true, CumulativeDistance: 0, Segment: 0},
		{NodeID: 1, IsOriginal: true, CumulativeDistance: -1, Segment: 0},
	}}
	if err := r.Validate(); err == nil {
		t.Error("expected error for decreasing cumulative distance")
	}
}

func TestRoute_Validate_Accepts(t *testing.T) {
	r := &Route{Waypoints: []Waypoint{
		{NodeID: 0, IsOriginal: true, CumulativeDistance: 0, Segment: 0},
		{NodeID: 1, IsOriginal: false, CumulativeDistance: 5, Segment: 0},
		{NodeID: 2, IsOriginal: true, CumulativeDistance: 10, Segment: 0},
	}}
	if err := r.Validate(); err != nil {
		t.Errorf("expected valid route, got %v", err)
	}
}

func TestGenerateRoute_InterpolatesAndAccumulates(t *testing.T) {
	originals := []OriginalWaypoint{
		{Lat: 0, Lon: 0, Name: "A"},
		{Lat: 0, Lon: 1, Name: "B"},
	}
	route := GenerateRoute(originals, 10.0)

	if len(route.Waypoints) < 2 {
		t.Fatalf("expected at least 2 waypoints, got %d", len(route.Waypoints))
	}
	if !route.Waypoints[0].IsOriginal || route.Waypoints[0].CumulativeDistance != 0 {
		t.Errorf("first waypoint must be original at distance 0, got %+v", route.Waypoints[0])
	}
	last := route.Waypoints[len(route.Waypoints)-1]
	if !last.IsOriginal {
		t.Errorf("last waypoint must be original, got %+v", last)
	}
	for i := 1; i < len(route.Waypoints); i++ {
		if route.Waypoints[i].CumulativeDistance < route.Waypoints[i-1].CumulativeDistance {
			t.Fatalf("cumulative distance not non-decreasing at %d", i)
		}
	}
	if err := route.Validate(); err != nil {
		t.Errorf("generated route failed validation: %v", err)
	}
}

func TestGenerateRoute_NoIntermediatesWhenClose(t *testing.T) {
	originals := []OriginalWaypoint{
		{Lat: 0, Lon: 0, Name: "A"},
		{Lat: 0.001, Lon: 0.001, Name: "B"},
	}
	route := GenerateRoute(originals, 50.0)
	if len(route.Waypoints) != 2 {
		t.Errorf("expected 2 waypoints with no room for intermediates, got %d", len(route.Waypoints))
	}
}

func TestScheduleEntry_ValidateRejectsNonPositiveSOG(t *testing.T) {
	route := &Route{Waypoints: []Waypoint{{NodeID: 0}, {NodeID: 1}}}
	s := &SpeedSchedule{Entries: []ScheduleEntry{
		{LegIndex: 0, SourceNodeID: 0, TargetSOG: 0},
	}}
	if err := s.Validate(route); err == nil {
		t.Error("expected error for zero target SOG")
	}
}
