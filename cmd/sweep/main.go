// Command sweep runs the rolling-horizon driver across a list of replan
// frequencies concurrently, one goroutine per frequency, each opening its
// own store handle so no state is shared between runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/amishafir/voyage-optimization/internal/config"
	"github.com/amishafir/voyage-optimization/internal/dynamicdp"
	"github.com/amishafir/voyage-optimization/internal/logger"
	"github.com/amishafir/voyage-optimization/internal/metrics"
	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/rollinghorizon"
	"github.com/amishafir/voyage-optimization/internal/simulate"
	"github.com/amishafir/voyage-optimization/internal/weatherstore"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML experiment config (defaults built in if empty)")
	storePath := flag.String("store", "", "path to the weather store SQLite file")
	frequencies := flag.String("frequencies", "2,4,6,12,24", "comma-separated replan frequencies in hours")
	outDir := flag.String("out", ".", "directory to write the per-frequency time-series CSVs into")
	concurrency := flag.Int("concurrency", 4, "max number of frequencies solved concurrently")
	flag.Parse()

	logger.Banner(version)

	freqs, err := parseFrequencies(*frequencies)
	if err != nil {
		logger.Error("SWEEP", err.Error())
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("CONFIG", err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}

	var group errgroup.Group
	group.SetLimit(*concurrency)

	for _, freq := range freqs {
		freq := freq
		group.Go(func() error {
			return runOne(*storePath, *outDir, cfg, freq)
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("SWEEP", err.Error())
		os.Exit(1)
	}
	logger.Success("SWEEP", fmt.Sprintf("Completed %d replan-frequency runs", len(freqs)))
}

func parseFrequencies(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	freqs := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid replan frequency %q: %w", p, err)
		}
		freqs = append(freqs, v)
	}
	if len(freqs) == 0 {
		return nil, fmt.Errorf("no replan frequencies given")
	}
	return freqs, nil
}

// runOne opens its own store handle, solves the rolling-horizon tier at
// the given replan frequency, simulates and scores the result, writes its
// CSV, and saves its result record in the store. No state is shared with
// any other goroutine.
func runOne(storePath, outDir string, cfg *config.Config, replanFrequency float64) error {
	tag := fmt.Sprintf("SWEEP[%gh]", replanFrequency)

	store, err := weatherstore.Open(storePath)
	if err != nil {
		return fmt.Errorf("%s: open store: %w", tag, err)
	}
	defer store.Close()

	route, err := store.ReadMetadata()
	if err != nil || len(route.Waypoints) == 0 {
		return fmt.Errorf("%s: read route metadata: %w", tag, err)
	}

	ship := physics.ShipParams{
		LengthM:            cfg.Ship.LengthM,
		BeamM:              cfg.Ship.BeamM,
		DraftM:             cfg.Ship.DraftM,
		DisplacementTonnes: cfg.Ship.DisplacementTonnes,
		BlockCoefficient:   cfg.Ship.BlockCoefficient,
		RatedPowerKW:       cfg.Ship.RatedPowerKW,
		MinSpeedKnots:      cfg.Ship.MinSpeed(),
		MaxSpeedKnots:      cfg.Ship.MaxSpeed(),
	}

	hours, err := store.AvailablePredictedSampleHours()
	if err != nil || len(hours) == 0 {
		return fmt.Errorf("%s: no predicted weather available", tag)
	}
	grids := rollinghorizon.WeatherGrids{
		BySampleHour:    make(map[int]dynamicdp.WeatherGrid, len(hours)),
		MaxForecastHour: make(map[int]int, len(hours)),
	}
	for _, h := range hours {
		predicted, err := store.ReadPredicted(h)
		if err != nil {
			return fmt.Errorf("%s: read predicted weather at sample %d: %w", tag, h, err)
		}
		grid := dynamicdp.WeatherGrid(predicted)
		grids.BySampleHour[h] = grid
		maxForecastHour := 0
		for _, byHour := range grid {
			for fh := range byHour {
				if fh > maxForecastHour {
					maxForecastHour = fh
				}
			}
		}
		grids.MaxForecastHour[h] = maxForecastHour
	}

	rhConfig := rollinghorizon.Config{
		ReplanFrequencyHours: replanFrequency,
		DeltaT:               cfg.DynamicDet.TimeGranularity,
		MinSpeedKnots:        cfg.Ship.MinSpeed(),
		MaxSpeedKnots:        cfg.Ship.MaxSpeed(),
		SpeedGranularity:     cfg.DynamicDet.SpeedGranularity,
	}
	rhResult, err := rollinghorizon.Run(route, grids, cfg.Ship.ETAHours, ship, rhConfig)
	if err != nil {
		return fmt.Errorf("%s: rolling-horizon run: %w", tag, err)
	}

	actualWeather, err := store.ReadActual(cfg.StaticDet.WeatherSnapshot)
	if err != nil {
		return fmt.Errorf("%s: read actual weather: %w", tag, err)
	}
	simResult, err := simulate.New(ship, route).Run(rhResult.Schedule, actualWeather, cfg.Ship.ETAHours)
	if err != nil {
		return fmt.Errorf("%s: simulate: %w", tag, err)
	}

	approach := fmt.Sprintf("rolling_horizon_%gh", replanFrequency)
	csvPath := filepath.Join(outDir, approach+"_timeseries.csv")
	if err := simulate.WriteTimeSeriesCSV(csvPath, simResult.Rows); err != nil {
		return fmt.Errorf("%s: write CSV: %w", tag, err)
	}

	totalDistance := route.Waypoints[len(route.Waypoints)-1].CumulativeDistance
	plannedBlock := metrics.PlannedBlockFromSchedule(string(rhResult.Status), rhResult.PlannedFuelKg, rhResult.PlannedTimeH, rhResult.Schedule)
	result, err := metrics.Build(approach, cfg, plannedBlock, simResult, totalDistance, csvPath)
	if err != nil {
		return fmt.Errorf("%s: build metrics: %w", tag, err)
	}
	if err := metrics.Save(store, result); err != nil {
		return fmt.Errorf("%s: save metrics: %w", tag, err)
	}

	logger.Success(tag, fmt.Sprintf("fuel gap %.2f%%, avg SOG %.2f knots", result.Metrics.FuelGapPercent, result.Metrics.AverageSOGKnots))
	return nil
}
