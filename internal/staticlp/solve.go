package staticlp

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// Status mirrors the {Optimal, Infeasible, Error} vocabulary every tier's
// solver reports.
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusInfeasible Status = "Infeasible"
	StatusError      Status = "Error"
)

// Result is the solver's output.
type Result struct {
	Status          Status
	PlannedFuelKg   float64
	PlannedTimeH    float64
	Schedule        *voyage.SpeedSchedule
	ComputationTimeS float64
}

// timeSlots controls the discretization fineness of the internal
// knapsack DP: the [0, ETA] time budget is divided into this many buckets.
// 2000 buckets keeps per-leg time resolution well under a minute for
// voyage-scale ETAs while keeping the DP table small (S * timeSlots cells).
const timeSlots = 2000

// Solve picks, for every segment, the speed-grid index minimizing total
// fuel subject to the cumulative time staying within problem.ETAHours.
// This is the multiple-choice-knapsack reduction of the LP's binary
// selection: one choice per segment, a single linear time budget, and
// per-segment SOG-band constraints that are automatically satisfied since
// SOGLower/SOGUpper are themselves the min/max of SOGTable[s][·] — no
// selection can violate them. No MILP library exists in this codebase's
// dependency set, so the LP is solved by a forward DP over discretized
// time buckets, structurally identical to the node x time-slot Bellman
// recursion used by the dynamic-deterministic tier.
func Solve(problem *Problem) (*Result, error) {
	s := len(problem.Segments)
	if s == 0 {
		return nil, fmt.Errorf("problem has no segments")
	}
	if problem.ETAHours <= 0 {
		return nil, fmt.Errorf("ETAHours must be positive, got %v", problem.ETAHours)
	}

	dt := problem.ETAHours / float64(timeSlots)

	type backPointer struct {
		prevSlot int
		speedIdx int
	}

	cost := make([]float64, timeSlots+1)
	for i := range cost {
		cost[i] = math.Inf(1)
	}
	cost[0] = 0

	backptr := make([][]backPointer, s)
	for seg := 0; seg < s; seg++ {
		backptr[seg] = make([]backPointer, timeSlots+1)
		for i := range backptr[seg] {
			backptr[seg][i] = backPointer{prevSlot: -1}
		}

		next := make([]float64, timeSlots+1)
		for i := range next {
			next[i] = math.Inf(1)
		}

		length := problem.Segments[seg].LengthNM
		for t := 0; t <= timeSlots; t++ {
			if math.IsInf(cost[t], 1) {
				continue
			}
			for k, fcr := range problem.FCR {
				sog := problem.SOGTable[seg][k]
				if sog <= 0 {
					continue
				}
				legTime := length / sog
				t2 := t + int(math.Ceil(legTime/dt))
				if t2 > timeSlots {
					continue
				}
				fuel := fcr * legTime
				candidate := cost[t] + fuel
				if candidate < next[t2] {
					next[t2] = candidate
					backptr[seg][t2] = backPointer{prevSlot: t, speedIdx: k}
				}
			}
		}
		cost = next
	}

	bestSlot, bestCost := -1, math.Inf(1)
	for t := 0; t <= timeSlots; t++ {
		if cost[t] < bestCost {
			bestCost = cost[t]
			bestSlot = t
		}
	}
	if bestSlot == -1 {
		return &Result{Status: StatusInfeasible}, nil
	}

	// Backtrack to recover the chosen speed index per segment, recomputing
	// SOG/time/fuel fresh to avoid drift.
	entries := make([]voyage.ScheduleEntry, s)
	slot := bestSlot
	var totalFuel, totalTime float64
	for seg := s - 1; seg >= 0; seg-- {
		bp := backptr[seg][slot]
		if bp.prevSlot == -1 && slot != 0 {
			return &Result{Status: StatusError}, fmt.Errorf("backtrack failed at segment %d, slot %d", seg, slot)
		}
		k := bp.speedIdx
		sws := problem.Speeds[k]
		sog := problem.SOGTable[seg][k]
		length := problem.Segments[seg].LengthNM
		legTime := length / sog
		legFuel := problem.FCR[k] * legTime

		entries[seg] = voyage.ScheduleEntry{
			LegIndex:      seg,
			SourceNodeID:  problem.Segments[seg].FirstNodeID,
			Segment:       seg,
			TargetSOG:     sog,
			ReferenceSWS:  sws,
			DistanceNM:    length,
			PlannedTimeH:  legTime,
			PlannedFuelKg: legFuel,
		}
		totalFuel += legFuel
		totalTime += legTime
		slot = bp.prevSlot
	}

	return &Result{
		Status:        StatusOptimal,
		PlannedFuelKg: totalFuel,
		PlannedTimeH:  totalTime,
		Schedule:      &voyage.SpeedSchedule{Entries: entries},
	}, nil
}
