// Package voyage holds the plain-data types shared by every tier of the
// optimization pipeline: the route's waypoint table, weather samples, the
// speed-schedule result shape, sparse DP lattice cells, and rolling-horizon
// decision telemetry. Nothing here mutates shared state; each tier's
// transform builds its own input bundle from these types.
package voyage

import "fmt"

// Waypoint is one node of the ordered route.
type Waypoint struct {
	NodeID             int
	Lat                float64
	Lon                float64
	Name               string
	IsOriginal         bool
	CumulativeDistance float64 // nautical miles from node 0
	Segment            int     // index into the LP's coarse segmentation
}

// Route is the ordered, validated waypoint table for a single voyage.
type Route struct {
	Waypoints []Waypoint
}

// NumSegments returns S, the count of coarse LP segments: one fewer than the
// number of original waypoints.
func (r *Route) NumSegments() int {
	originals := 0
	for _, w := range r.Waypoints {
		if w.IsOriginal {
			originals++
		}
	}
	if originals == 0 {
		return 0
	}
	return originals - 1
}

// Validate checks the route invariants from the data model: node 0 starts
// at distance 0 and is original, cumulative distance is non-decreasing, the
// last node is original, and segment indices form a contiguous 0..S-1 range.
func (r *Route) Validate() error {
	n := len(r.Waypoints)
	if n == 0 {
		return fmt.Errorf("route has no waypoints")
	}
	if r.Waypoints[0].CumulativeDistance != 0 {
		return fmt.Errorf("node 0 must have cumulative distance 0, got %v", r.Waypoints[0].CumulativeDistance)
	}
	if !r.Waypoints[0].IsOriginal {
		return fmt.Errorf("node 0 must be an original waypoint")
	}
	if !r.Waypoints[n-1].IsOriginal {
		return fmt.Errorf("last node must be an original waypoint")
	}
	for i := 1; i < n; i++ {
		if r.Waypoints[i].CumulativeDistance < r.Waypoints[i-1].CumulativeDistance {
			return fmt.Errorf("cumulative distance decreases at node %d: %v < %v",
				i, r.Waypoints[i].CumulativeDistance, r.Waypoints[i-1].CumulativeDistance)
		}
		if r.Waypoints[i].NodeID != i {
			return fmt.Errorf("waypoint %d has non-dense node id %d", i, r.Waypoints[i].NodeID)
		}
	}
	s := r.NumSegments()
	for i, w := range r.Waypoints {
		if w.Segment < 0 || w.Segment >= s {
			return fmt.Errorf("waypoint %d has segment %d outside [0,%d)", i, w.Segment, s)
		}
	}
	for i := 1; i < n; i++ {
		if step := r.Waypoints[i].Segment - r.Waypoints[i-1].Segment; step != 0 && step != 1 {
			return fmt.Errorf("segment index jumps from %d to %d at waypoint %d", r.Waypoints[i-1].Segment, r.Waypoints[i].Segment, i)
		}
	}
	if r.Waypoints[0].Segment != 0 || r.Waypoints[n-1].Segment != s-1 {
		return fmt.Errorf("segment indices must run from 0 to %d, got %d..%d", s-1, r.Waypoints[0].Segment, r.Waypoints[n-1].Segment)
	}
	return nil
}

// Weather is a single weather sample: wind, sea state, and current at one
// waypoint and moment in time.
type Weather struct {
	WindSpeedKmh        float64
	WindDirectionDeg    float64
	Beaufort            int
	WaveHeightM         float64
	CurrentSpeedKmh     float64
	CurrentDirectionDeg float64
}

// ScheduleEntry is one leg of a speed schedule: the LP uses one entry per
// coarse segment; the DP and RH use one entry per inter-node leg.
type ScheduleEntry struct {
	LegIndex      int
	SourceNodeID  int
	Segment       int
	TargetSOG     float64 // knots
	ReferenceSWS  float64 // knots, the planner's still-water speed
	DistanceNM    float64
	PlannedTimeH  float64
	PlannedFuelKg float64
}

// SpeedSchedule is the optimizer's output and the simulator's input.
type SpeedSchedule struct {
	Entries []ScheduleEntry
}

// Validate checks the schedule invariants shared by per-segment (LP) and
// per-leg (DP/RH) schedules: strictly positive target SOG, leg indices
// 0..len-1 in order, and every source node id inside the given route. It
// does not check that the entries reach node N-1, nor that each entry's
// distance matches the route's cumulative-distance delta.
func (s *SpeedSchedule) Validate(route *Route) error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("schedule has no entries")
	}
	for i, e := range s.Entries {
		if e.TargetSOG <= 0 {
			return fmt.Errorf("entry %d: target SOG must be positive, got %v", i, e.TargetSOG)
		}
		if e.LegIndex != i {
			return fmt.Errorf("entry %d: leg index %d is not contiguous", i, e.LegIndex)
		}
		if e.SourceNodeID < 0 || e.SourceNodeID >= len(route.Waypoints) {
			return fmt.Errorf("entry %d: source node id %d outside route", i, e.SourceNodeID)
		}
	}
	return nil
}

// DPCell is one reachable state in the sparse (node, time_slot) Bellman
// lattice: the minimum cumulative fuel cost to reach it, and a back-pointer
// to the predecessor cell plus the speed-grid index of the edge taken.
type DPCell struct {
	FuelCostKg   float64
	PrevTimeSlot int
	SpeedIndex   int
	Valid        bool
}

// DecisionPoint is one rolling-horizon re-planning epoch's telemetry.
type DecisionPoint struct {
	NominalDecisionHour float64
	ActualElapsedHour   float64
	SampleHour          int
	NodeIndex           int
	LegsCommitted       int
	ElapsedFuelKg       float64
	ElapsedTimeH        float64
	RemainingLegs       int
	RemainingETAHours   float64
	DPPlannedFuelKg     float64
	DPPlannedTimeH      float64
	DPStatus            string
	DPSolveTimeS        float64
}
