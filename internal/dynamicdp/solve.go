package dynamicdp

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// Status mirrors the {Optimal, Infeasible, Error} vocabulary every tier's
// solver reports.
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusFeasible   Status = "Feasible"
	StatusInfeasible Status = "Infeasible"
	StatusError      Status = "Error"
)

// Result is the solver's output.
type Result struct {
	Status        Status
	PlannedFuelKg float64
	PlannedTimeH  float64
	Schedule      *voyage.SpeedSchedule
}

type backPointer struct {
	prevSlot int
	speedIdx int
}

// Solve runs the forward Bellman recursion over the sparse (node, time_slot)
// lattice. Each node layer is stored as a map keyed by time slot rather than
// a dense array: only the slots actually reachable from node 0 are ever
// populated, which keeps the lattice small even though the slot axis spans
// the full ETA window. Within a node, slot order carries no semantic
// meaning, so cells are visited in map iteration order.
func Solve(problem *Problem) (*Result, error) {
	waypoints := problem.Route.Waypoints
	n := len(waypoints)
	if n < 2 {
		return nil, fmt.Errorf("route must have at least 2 waypoints")
	}
	if problem.DeltaT <= 0 {
		return nil, fmt.Errorf("deltaT must be positive, got %v", problem.DeltaT)
	}
	if problem.ETAHours <= 0 {
		return nil, fmt.Errorf("ETAHours must be positive, got %v", problem.ETAHours)
	}

	etaSlot := int(math.Floor(problem.ETAHours / problem.DeltaT))
	maxSlot := etaSlot

	cost := make([]map[int]float64, n)
	back := make([]map[int]backPointer, n)
	for i := range cost {
		cost[i] = make(map[int]float64)
		back[i] = make(map[int]backPointer)
	}
	cost[0][0] = 0

	for i := 0; i < n-1; i++ {
		a := waypoints[i]
		b := waypoints[i+1]
		dist := b.CumulativeDistance - a.CumulativeDistance
		if dist <= 0 {
			continue
		}
		headingDeg := physics.BearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)
		headingRad := headingDeg * math.Pi / 180

		for slot, c := range cost[i] {
			elapsedHours := float64(slot)*problem.DeltaT + problem.TimeOffset
			w := weatherAt(problem.WeatherGrid, a.NodeID, elapsedHours, problem.MaxForecastHour)

			for k, sws := range problem.Speeds {
				sog := math.Max(physics.SOGFromWeather(sws, headingRad, w, problem.Ship), 0.1)
				legTime := dist / sog
				t2 := slot + int(math.Ceil(legTime/problem.DeltaT))
				if t2 > maxSlot {
					continue
				}
				fuel := problem.FCR[k] * legTime
				candidate := c + fuel
				if existing, ok := cost[i+1][t2]; !ok || candidate < existing {
					cost[i+1][t2] = candidate
					back[i+1][t2] = backPointer{prevSlot: slot, speedIdx: k}
				}
			}
		}
	}

	last := n - 1
	bestSlot, bestCost := -1, math.Inf(1)
	for slot, c := range cost[last] {
		if slot <= etaSlot && c < bestCost {
			bestCost = c
			bestSlot = slot
		}
	}
	if bestSlot == -1 {
		return &Result{Status: StatusInfeasible}, nil
	}
	status := StatusOptimal

	entries := make([]voyage.ScheduleEntry, n-1)
	slot := bestSlot
	var totalFuel, totalTime float64
	for i := last; i > 0; i-- {
		bp, ok := back[i][slot]
		if !ok {
			return &Result{Status: StatusError}, fmt.Errorf("backtrack failed at node %d, slot %d", i, slot)
		}
		a := waypoints[i-1]
		b := waypoints[i]
		dist := b.CumulativeDistance - a.CumulativeDistance
		sws := problem.Speeds[bp.speedIdx]

		headingDeg := physics.BearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)
		headingRad := headingDeg * math.Pi / 180
		elapsedHours := float64(bp.prevSlot)*problem.DeltaT + problem.TimeOffset
		w := weatherAt(problem.WeatherGrid, a.NodeID, elapsedHours, problem.MaxForecastHour)
		sog := math.Max(physics.SOGFromWeather(sws, headingRad, w, problem.Ship), 0.1)
		legTime := dist / sog
		legFuel := problem.FCR[bp.speedIdx] * legTime

		entries[i-1] = voyage.ScheduleEntry{
			LegIndex:      i - 1,
			SourceNodeID:  a.NodeID,
			Segment:       a.Segment,
			TargetSOG:     sog,
			ReferenceSWS:  sws,
			DistanceNM:    dist,
			PlannedTimeH:  legTime,
			PlannedFuelKg: legFuel,
		}
		totalFuel += legFuel
		totalTime += legTime
		slot = bp.prevSlot
	}

	if math.Abs(totalFuel-bestCost) > 1.0 {
		status = StatusFeasible
	}

	return &Result{
		Status:        status,
		PlannedFuelKg: totalFuel,
		PlannedTimeH:  totalTime,
		Schedule:      &voyage.SpeedSchedule{Entries: entries},
	}, nil
}
