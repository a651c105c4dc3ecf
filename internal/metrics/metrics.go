// Package metrics packages a planner's output and the simulator's
// replay of it into one stable result record, computes the gap metrics
// that quantify forecast error, and persists the record into the weather
// store's run_results table for later inspection.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/amishafir/voyage-optimization/internal/config"
	"github.com/amishafir/voyage-optimization/internal/simulate"
	"github.com/amishafir/voyage-optimization/internal/voyage"
	"github.com/amishafir/voyage-optimization/internal/weatherstore"
)

// PlannedBlock captures one tier's planning-time output.
type PlannedBlock struct {
	TotalFuelKg      float64
	TotalTimeH       float64
	Schedule         []PlannedLeg
	SolverStatus     string
	WallTimeS        float64
}

// PlannedLeg is the planner's per-leg record, independent of the richer
// per-leg simulation rows.
type PlannedLeg struct {
	LegIndex      int
	SourceNodeID  int
	TargetSOG     float64
	ReferenceSWS  float64
	DistanceNM    float64
	PlannedTimeH  float64
	PlannedFuelKg float64
}

// SimulatedBlock captures the simulator's replay of the planned schedule
// against observed weather.
type SimulatedBlock struct {
	TotalFuelKg       float64
	TotalTimeH        float64
	ArrivalDeviationH float64
	SpeedChanges      int
	CO2EmissionsKg    float64
	ViolationCount    int
}

// Metrics holds the three headline forecast-gap figures.
type Metrics struct {
	FuelGapPercent   float64
	FuelPerNM        float64
	AverageSOGKnots  float64
}

// Result is the stable, JSON-serializable record persisted per run.
type Result struct {
	RunID         string
	Approach      string
	CreatedAt     string
	ConfigSnapshot *config.Config
	Planned       PlannedBlock
	Simulated     SimulatedBlock
	Metrics       Metrics
	TimeSeriesCSV string
}

// Build assembles a Result from a planner's block, the simulator's run, and
// the total route distance, computing the gap metrics: fuel gap, fuel per
// nautical mile, and average achieved SOG.
func Build(approach string, cfg *config.Config, planned PlannedBlock, sim *simulate.Result, totalDistanceNM float64, timeSeriesCSV string) (*Result, error) {
	if planned.TotalFuelKg <= 0 {
		return nil, fmt.Errorf("planned fuel must be positive, got %v", planned.TotalFuelKg)
	}
	if sim.TotalTimeH <= 0 {
		return nil, fmt.Errorf("simulated time must be positive, got %v", sim.TotalTimeH)
	}
	if totalDistanceNM <= 0 {
		return nil, fmt.Errorf("total distance must be positive, got %v", totalDistanceNM)
	}

	fuelGap := (sim.TotalFuelKg - planned.TotalFuelKg) / planned.TotalFuelKg * 100
	fuelPerNM := sim.TotalFuelKg / totalDistanceNM
	avgSOG := totalDistanceNM / sim.TotalTimeH

	return &Result{
		RunID:          uuid.NewString(),
		Approach:       approach,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		ConfigSnapshot: cfg,
		Planned:        planned,
		Simulated: SimulatedBlock{
			TotalFuelKg:       sim.TotalFuelKg,
			TotalTimeH:        sim.TotalTimeH,
			ArrivalDeviationH: sim.ArrivalDeviationH,
			SpeedChanges:      sim.SpeedChanges,
			CO2EmissionsKg:    sim.CO2EmissionsKg,
			ViolationCount:    sim.ViolationCount,
		},
		Metrics: Metrics{
			FuelGapPercent:  roundTo(fuelGap, 3),
			FuelPerNM:       roundTo(fuelPerNM, 6),
			AverageSOGKnots: roundTo(avgSOG, 3),
		},
		TimeSeriesCSV: timeSeriesCSV,
	}, nil
}

// PlannedBlockFromSchedule adapts any tier's raw schedule output into the
// metrics PlannedBlock shape, shared by every CLI entrypoint.
func PlannedBlockFromSchedule(status string, fuelKg, timeH float64, schedule *voyage.SpeedSchedule) PlannedBlock {
	legs := make([]PlannedLeg, len(schedule.Entries))
	for i, e := range schedule.Entries {
		legs[i] = PlannedLeg{
			LegIndex:      e.LegIndex,
			SourceNodeID:  e.SourceNodeID,
			TargetSOG:     e.TargetSOG,
			ReferenceSWS:  e.ReferenceSWS,
			DistanceNM:    e.DistanceNM,
			PlannedTimeH:  e.PlannedTimeH,
			PlannedFuelKg: e.PlannedFuelKg,
		}
	}
	return PlannedBlock{
		TotalFuelKg:  fuelKg,
		TotalTimeH:   timeH,
		SolverStatus: status,
		Schedule:     legs,
	}
}

func roundTo(v float64, decimals int) float64 {
	mult := math.Pow(10, float64(decimals))
	return math.Round(v*mult) / mult
}

// Save serializes the result to JSON and persists it in the store's
// run_results table, keyed by RunID.
func Save(store *weatherstore.Store, result *Result) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", result.RunID, err)
	}
	if err := store.SaveRunResult(result.RunID, result.Approach, result.CreatedAt, string(blob)); err != nil {
		return fmt.Errorf("save result %s: %w", result.RunID, err)
	}
	return nil
}
