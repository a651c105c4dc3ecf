// Package simulate closes the optimization loop: given any speed schedule
// and the observed ("actual") weather at a fixed sample hour, it walks the
// route leg by leg, inverts the physics to find the still-water speed
// needed to hit each leg's target SOG, clamps it to engine limits, and
// accumulates fuel, time, and emissions.
package simulate

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// LegRow is one row of the simulated time series: the per-leg outcome plus
// running cumulative totals.
type LegRow struct {
	Index         int
	NodeID        int
	Segment       int
	Lat           float64
	Lon           float64
	PlannedSOG    float64 // the schedule's target SOG for this leg
	SWSKnots      float64 // achieved still-water speed, clamped to engine limits
	SOGKnots      float64 // achieved SOG under observed weather
	DistanceNM    float64
	TimeH         float64
	FuelKg        float64
	CumDistanceNM float64
	CumTimeH      float64
	CumFuelKg     float64
	Beaufort      int
	WaveHeightM   float64
	CurrentKnots  float64
	HeadingDeg    float64
	Violation     bool // clamping moved SWS by more than 0.01 knots
}

// Result is the simulator's output: totals plus the full leg-by-leg time
// series.
type Result struct {
	TotalFuelKg       float64
	TotalTimeH        float64
	ArrivalDeviationH float64 // cumulative time minus ETA
	SpeedChanges      int     // count of adjacent schedule target-SOG differences
	CO2EmissionsKg    float64
	ViolationCount    int
	Rows              []LegRow
}

// Engine runs forward simulations against a fixed ship and route.
type Engine struct {
	Ship  physics.ShipParams
	Route *voyage.Route
}

// New returns a simulation Engine for the given ship and route.
func New(ship physics.ShipParams, route *voyage.Route) *Engine {
	return &Engine{Ship: ship, Route: route}
}

// Run simulates schedule against the observed weather at the given sample
// hour (weatherByNode maps node id to its weather reading; a missing node
// is treated as calm). etaHours is the planned arrival deadline, used only
// to compute ArrivalDeviationH.
func (e *Engine) Run(schedule *voyage.SpeedSchedule, weatherByNode map[int]voyage.Weather, etaHours float64) (*Result, error) {
	if len(schedule.Entries) == 0 {
		return nil, fmt.Errorf("empty speed schedule")
	}
	waypoints := e.Route.Waypoints
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route must have at least 2 waypoints")
	}

	// DP/RH schedules carry one entry per leg, addressed by source node id;
	// LP schedules carry one entry per coarse segment. Index both ways so
	// a leg first tries its own node, then falls back to its segment.
	targetByNode := make(map[int]float64, len(schedule.Entries))
	targetBySegment := make(map[int]float64, len(schedule.Entries))
	for _, entry := range schedule.Entries {
		targetByNode[entry.SourceNodeID] = entry.TargetSOG
		targetBySegment[entry.Segment] = entry.TargetSOG
	}

	rows := make([]LegRow, 0, len(waypoints)-1)
	var cumDistance, cumTime, cumFuel float64
	var prevTarget float64
	speedChanges := 0
	violations := 0

	for i := 0; i < len(waypoints)-1; i++ {
		a := waypoints[i]
		b := waypoints[i+1]

		dist := b.CumulativeDistance - a.CumulativeDistance
		if dist <= 0 {
			continue
		}

		targetSOG, ok := targetByNode[a.NodeID]
		if !ok {
			targetSOG, ok = targetBySegment[a.Segment]
		}
		if !ok {
			return nil, fmt.Errorf("no schedule entry for node %d (segment %d)", a.NodeID, a.Segment)
		}

		if i > 0 && targetSOG != prevTarget {
			speedChanges++
		}
		prevTarget = targetSOG

		w := toPhysicsWeather(weatherByNode[a.NodeID])
		w = physics.SanitizeWeather(w)

		headingDeg := physics.BearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)
		headingRad := headingDeg * math.Pi / 180

		inv := physics.InverseSWS(targetSOG, headingRad, w, e.Ship)
		rawSWS := inv.SWS
		sws := clamp(rawSWS, e.Ship.MinSpeedKnots, e.Ship.MaxSpeedKnots)

		violation := math.Abs(sws-rawSWS) > 0.01
		if violation {
			violations++
		}

		sog := math.Max(physics.SOGFromWeather(sws, headingRad, w, e.Ship), 0.1)

		fcr := physics.FuelConsumptionRate(sws)
		legTime := dist / sog
		legFuel := fcr * legTime

		cumDistance += dist
		cumTime += legTime
		cumFuel += legFuel

		currentKnots := w.CurrentSpeedKmh / 1.852

		rows = append(rows, LegRow{
			Index:         i,
			NodeID:        a.NodeID,
			Segment:       a.Segment,
			Lat:           a.Lat,
			Lon:           a.Lon,
			PlannedSOG:    targetSOG,
			SWSKnots:      sws,
			SOGKnots:      sog,
			DistanceNM:    dist,
			TimeH:         legTime,
			FuelKg:        legFuel,
			CumDistanceNM: cumDistance,
			CumTimeH:      cumTime,
			CumFuelKg:     cumFuel,
			Beaufort:      w.Beaufort,
			WaveHeightM:   w.WaveHeightM,
			CurrentKnots:  currentKnots,
			HeadingDeg:    headingDeg,
			Violation:     violation,
		})
	}

	return &Result{
		TotalFuelKg:       cumFuel,
		TotalTimeH:        cumTime,
		ArrivalDeviationH: cumTime - etaHours,
		SpeedChanges:      speedChanges,
		CO2EmissionsKg:    physics.CO2Emissions(cumFuel),
		ViolationCount:    violations,
		Rows:              rows,
	}, nil
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

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
