// Package rollinghorizon drives repeated dynamic-DP re-solves at fixed
// decision epochs, committing only the leading legs each sub-solve is
// confident about and re-planning the remainder against the freshest
// forecast available at the next epoch.
package rollinghorizon

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/dynamicdp"
	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// WeatherGrids holds, for every available sample hour, the per-node
// forecast grid the DP needs plus that grid's highest forecast hour.
type WeatherGrids struct {
	BySampleHour    map[int]dynamicdp.WeatherGrid
	MaxForecastHour map[int]int
}

// Config is the RH loop's tuning knobs, mirroring dynamic_rh.* in the
// nested configuration record.
type Config struct {
	ReplanFrequencyHours float64
	DeltaT               float64
	MinSpeedKnots        float64
	MaxSpeedKnots        float64
	SpeedGranularity     float64
}

// Result is the RH driver's output: the stitched global schedule plus the
// epoch-by-epoch decision log.
type Result struct {
	Status       dynamicdp.Status
	PlannedFuelKg float64
	PlannedTimeH  float64
	Schedule      *voyage.SpeedSchedule
	DecisionLog   []voyage.DecisionPoint
}

// freshestSampleHour picks the freshest available sample hour not after
// elapsedTime, falling back to the smallest available hour if none
// qualifies.
func freshestSampleHour(available []int, elapsedTime float64) (int, bool) {
	if len(available) == 0 {
		return 0, false
	}
	floor := int(math.Floor(elapsedTime))
	best, found := 0, false
	for _, h := range available {
		if h <= floor && (!found || h > best) {
			best = h
			found = true
		}
	}
	if found {
		return best, true
	}
	smallest := available[0]
	for _, h := range available {
		if h < smallest {
			smallest = h
		}
	}
	return smallest, true
}

// Run executes the decision-epoch loop described in the rolling-horizon
// section: at each nominal hour it builds a sub-instance over the
// remaining route, solves it with the dynamic-DP tier, commits the legs
// that start before the next epoch (or all remaining legs on the final
// epoch), and advances state.
func Run(route *voyage.Route, grids WeatherGrids, etaHours float64, ship physics.ShipParams, cfg Config) (*Result, error) {
	n := len(route.Waypoints)
	if n < 2 {
		return nil, fmt.Errorf("route must have at least 2 waypoints")
	}
	if cfg.ReplanFrequencyHours <= 0 {
		return nil, fmt.Errorf("replan frequency must be positive, got %v", cfg.ReplanFrequencyHours)
	}

	var available []int
	for h := range grids.BySampleHour {
		available = append(available, h)
	}

	var committed []voyage.ScheduleEntry
	var log []voyage.DecisionPoint
	currentNodeIdx := 0
	elapsedTime := 0.0
	elapsedFuel := 0.0
	nominalHour := 0.0
	status := dynamicdp.StatusOptimal

	for currentNodeIdx < n-1 {
		remainingETA := etaHours - elapsedTime
		if remainingETA <= 0 {
			status = dynamicdp.StatusFeasible
			log = append(log, voyage.DecisionPoint{
				NominalDecisionHour: nominalHour,
				ActualElapsedHour:   elapsedTime,
				NodeIndex:           currentNodeIdx,
				ElapsedFuelKg:       elapsedFuel,
				ElapsedTimeH:        elapsedTime,
				RemainingLegs:       n - 1 - currentNodeIdx,
				RemainingETAHours:   remainingETA,
				DPStatus:            string(dynamicdp.StatusInfeasible),
			})
			break
		}

		sampleHour, ok := freshestSampleHour(available, elapsedTime)
		var grid dynamicdp.WeatherGrid
		maxForecastHour := 0
		if ok {
			grid = grids.BySampleHour[sampleHour]
			maxForecastHour = grids.MaxForecastHour[sampleHour]
		}

		subRoute := &voyage.Route{Waypoints: rebaseWaypoints(route.Waypoints[currentNodeIdx:])}

		problem, err := dynamicdp.Transform(subRoute, grid, maxForecastHour, remainingETA, elapsedTime, cfg.DeltaT, cfg.MinSpeedKnots, cfg.MaxSpeedKnots, cfg.SpeedGranularity, ship)
		if err != nil {
			return nil, fmt.Errorf("transform sub-instance at node %d: %w", currentNodeIdx, err)
		}
		result, err := dynamicdp.Solve(problem)
		if err != nil {
			return nil, fmt.Errorf("solve sub-instance at node %d: %w", currentNodeIdx, err)
		}

		nextNominalHour := nominalHour + cfg.ReplanFrequencyHours
		isLastEpoch := nextNominalHour >= etaHours || result.Status == dynamicdp.StatusInfeasible

		committedThisEpoch := 0
		if result.Status != dynamicdp.StatusInfeasible {
			epochStartElapsed := elapsedTime
			cursor := elapsedTime
			for _, e := range result.Schedule.Entries {
				if !isLastEpoch && cursor-epochStartElapsed >= cfg.ReplanFrequencyHours {
					break
				}
				global := e
				global.LegIndex = currentNodeIdx + committedThisEpoch
				global.SourceNodeID = route.Waypoints[currentNodeIdx+committedThisEpoch].NodeID
				global.Segment = route.Waypoints[currentNodeIdx+committedThisEpoch].Segment
				committed = append(committed, global)
				elapsedFuel += e.PlannedFuelKg
				cursor += e.PlannedTimeH
				committedThisEpoch++
			}
			elapsedTime = cursor
		}

		log = append(log, voyage.DecisionPoint{
			NominalDecisionHour: nominalHour,
			ActualElapsedHour:   elapsedTime,
			SampleHour:          sampleHour,
			NodeIndex:           currentNodeIdx,
			LegsCommitted:       committedThisEpoch,
			ElapsedFuelKg:       elapsedFuel,
			ElapsedTimeH:        elapsedTime,
			RemainingLegs:       n - 1 - (currentNodeIdx + committedThisEpoch),
			RemainingETAHours:   etaHours - elapsedTime,
			DPPlannedFuelKg:     result.PlannedFuelKg,
			DPPlannedTimeH:      result.PlannedTimeH,
			DPStatus:            string(result.Status),
		})

		if result.Status == dynamicdp.StatusInfeasible {
			status = dynamicdp.StatusFeasible
			break
		}
		if committedThisEpoch == 0 {
			return nil, fmt.Errorf("decision epoch at node %d committed zero legs; replan frequency %v too small for deltaT %v", currentNodeIdx, cfg.ReplanFrequencyHours, cfg.DeltaT)
		}

		currentNodeIdx += committedThisEpoch
		nominalHour = nextNominalHour
		if result.Status == dynamicdp.StatusFeasible && status == dynamicdp.StatusOptimal {
			status = dynamicdp.StatusFeasible
		}
	}

	for i := range committed {
		committed[i].LegIndex = i
	}

	var totalFuel, totalTime float64
	for _, e := range committed {
		totalFuel += e.PlannedFuelKg
		totalTime += e.PlannedTimeH
	}

	return &Result{
		Status:        status,
		PlannedFuelKg: totalFuel,
		PlannedTimeH:  totalTime,
		Schedule:      &voyage.SpeedSchedule{Entries: committed},
		DecisionLog:   log,
	}, nil
}

// rebaseWaypoints copies a waypoint slice into a fresh sub-route with dense
// node ids and cumulative distances starting at 0, as the DP transform
// requires.
func rebaseWaypoints(src []voyage.Waypoint) []voyage.Waypoint {
	out := make([]voyage.Waypoint, len(src))
	base := src[0].CumulativeDistance
	for i, wp := range src {
		out[i] = wp
		out[i].NodeID = i
		out[i].CumulativeDistance = wp.CumulativeDistance - base
	}
	return out
}
