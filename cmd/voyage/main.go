// Command voyage runs one optimization tier end to end: it loads the
// configuration and weather store, transforms and solves the requested
// tier, replays the resulting schedule through the simulator against
// observed weather, saves the metrics result record in the weather store's
// run_results table, and writes the time-series CSV to disk.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/amishafir/voyage-optimization/internal/config"
	"github.com/amishafir/voyage-optimization/internal/dynamicdp"
	"github.com/amishafir/voyage-optimization/internal/legacyimport"
	"github.com/amishafir/voyage-optimization/internal/logger"
	"github.com/amishafir/voyage-optimization/internal/metrics"
	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/rollinghorizon"
	"github.com/amishafir/voyage-optimization/internal/simulate"
	"github.com/amishafir/voyage-optimization/internal/staticlp"
	"github.com/amishafir/voyage-optimization/internal/voyage"
	"github.com/amishafir/voyage-optimization/internal/weatherstore"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML experiment config (defaults built in if empty)")
	storePath := flag.String("store", "", "path to the weather store SQLite file")
	approach := flag.String("approach", "static", "tier to run: static | dynamic | rolling")
	outDir := flag.String("out", ".", "directory to write the time-series CSV into")
	importPath := flag.String("import", "", "import a legacy route dump into the store and exit")
	flag.Parse()

	logger.Banner(version)

	if *importPath != "" {
		if _, err := legacyimport.Import(*importPath, *storePath); err != nil {
			logger.Error("IMPORT", err.Error())
			os.Exit(1)
		}
		return
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

	store, err := weatherstore.Open(*storePath)
	if err != nil {
		logger.Error("STORE", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	route, err := store.ReadMetadata()
	if err != nil || len(route.Waypoints) == 0 {
		logger.Error("STORE", "no route metadata found; run the collector or legacyimport first")
		os.Exit(1)
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

	plannedBlock, schedule, err := runTier(*approach, cfg, route, ship, store)
	if err != nil {
		logger.Error(tagFor(*approach), err.Error())
		os.Exit(1)
	}

	actualWeather, err := store.ReadActual(cfg.StaticDet.WeatherSnapshot)
	if err != nil {
		logger.Error("STORE", err.Error())
		os.Exit(1)
	}

	engine := simulate.New(ship, route)
	simResult, err := engine.Run(schedule, actualWeather, cfg.Ship.ETAHours)
	if err != nil {
		logger.Error("SIMULATE", err.Error())
		os.Exit(1)
	}

	csvPath := filepath.Join(*outDir, *approach+"_timeseries.csv")
	if err := simulate.WriteTimeSeriesCSV(csvPath, simResult.Rows); err != nil {
		logger.Error("SIMULATE", err.Error())
		os.Exit(1)
	}

	totalDistance := route.Waypoints[len(route.Waypoints)-1].CumulativeDistance
	result, err := metrics.Build(*approach, cfg, plannedBlock, simResult, totalDistance, csvPath)
	if err != nil {
		logger.Error("METRICS", err.Error())
		os.Exit(1)
	}
	if err := metrics.Save(store, result); err != nil {
		logger.Error("METRICS", err.Error())
		os.Exit(1)
	}

	logger.Section("Run Summary")
	logger.Stats("Run ID", result.RunID)
	logger.Stats("Planned fuel (kg)", humanize.Commaf(result.Planned.TotalFuelKg))
	logger.Stats("Simulated fuel (kg)", humanize.Commaf(result.Simulated.TotalFuelKg))
	logger.Stats("Fuel gap (%)", fmt.Sprintf("%.2f", result.Metrics.FuelGapPercent))
	logger.Stats("Fuel per nm (kg)", fmt.Sprintf("%.4f", result.Metrics.FuelPerNM))
	logger.Stats("Average SOG (knots)", fmt.Sprintf("%.2f", result.Metrics.AverageSOGKnots))
	logger.Stats("CO2 emissions (kg)", humanize.Commaf(result.Simulated.CO2EmissionsKg))
	logger.Stats("SWS violations", result.Simulated.ViolationCount)
	logger.Stats("Time series CSV", csvPath)
}

func tagFor(approach string) string {
	switch approach {
	case "dynamic":
		return "DYNAMIC_DET"
	case "rolling":
		return "ROLLING_HORIZON"
	default:
		return "STATIC_LP"
	}
}

// runTier transforms and solves the requested tier, returning the metrics
// PlannedBlock summary alongside the raw schedule the simulator consumes.
func runTier(approach string, cfg *config.Config, route *voyage.Route, ship physics.ShipParams, store *weatherstore.Store) (metrics.PlannedBlock, *voyage.SpeedSchedule, error) {
	switch approach {
	case "static":
		return runStatic(cfg, route, ship, store)
	case "dynamic":
		return runDynamic(cfg, route, ship, store)
	case "rolling":
		return runRolling(cfg, route, ship, store)
	default:
		return metrics.PlannedBlock{}, nil, fmt.Errorf("unknown approach %q (want static, dynamic, or rolling)", approach)
	}
}

func runStatic(cfg *config.Config, route *voyage.Route, ship physics.ShipParams, store *weatherstore.Store) (metrics.PlannedBlock, *voyage.SpeedSchedule, error) {
	weatherByNode, err := store.ReadActual(cfg.StaticDet.WeatherSnapshot)
	if err != nil {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("read weather snapshot %d: %w", cfg.StaticDet.WeatherSnapshot, err)
	}
	problem, err := staticlp.Transform(route, weatherByNode, cfg.Ship.ETAHours, cfg.Ship.MinSpeed(), cfg.Ship.MaxSpeed(), cfg.StaticDet.SpeedChoices, ship)
	if err != nil {
		return metrics.PlannedBlock{}, nil, err
	}
	result, err := staticlp.Solve(problem)
	if err != nil {
		return metrics.PlannedBlock{}, nil, err
	}
	if result.Status != staticlp.StatusOptimal {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("static LP returned status %v", result.Status)
	}
	return metrics.PlannedBlockFromSchedule(string(result.Status), result.PlannedFuelKg, result.PlannedTimeH, result.Schedule), result.Schedule, nil
}

func runDynamic(cfg *config.Config, route *voyage.Route, ship physics.ShipParams, store *weatherstore.Store) (metrics.PlannedBlock, *voyage.SpeedSchedule, error) {
	sampleHour := cfg.DynamicDet.ForecastOrigin
	predicted, err := store.ReadPredicted(sampleHour)
	if err != nil {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("read predicted weather at sample %d: %w", sampleHour, err)
	}
	grid := dynamicdp.WeatherGrid(predicted)
	maxForecastHour := 0
	if cfg.DynamicDet.MaxForecastHorizon != nil {
		maxForecastHour = *cfg.DynamicDet.MaxForecastHorizon
	} else {
		for _, byHour := range grid {
			for h := range byHour {
				if h > maxForecastHour {
					maxForecastHour = h
				}
			}
		}
	}

	problem, err := dynamicdp.Transform(route, grid, maxForecastHour, cfg.Ship.ETAHours, 0, cfg.DynamicDet.TimeGranularity, cfg.Ship.MinSpeed(), cfg.Ship.MaxSpeed(), cfg.DynamicDet.SpeedGranularity, ship)
	if err != nil {
		return metrics.PlannedBlock{}, nil, err
	}
	result, err := dynamicdp.Solve(problem)
	if err != nil {
		return metrics.PlannedBlock{}, nil, err
	}
	if result.Status == dynamicdp.StatusInfeasible || result.Status == dynamicdp.StatusError {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("dynamic DP returned status %v", result.Status)
	}
	return metrics.PlannedBlockFromSchedule(string(result.Status), result.PlannedFuelKg, result.PlannedTimeH, result.Schedule), result.Schedule, nil
}

func runRolling(cfg *config.Config, route *voyage.Route, ship physics.ShipParams, store *weatherstore.Store) (metrics.PlannedBlock, *voyage.SpeedSchedule, error) {
	hours, err := store.AvailablePredictedSampleHours()
	if err != nil {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("list available sample hours: %w", err)
	}
	if len(hours) == 0 {
		return metrics.PlannedBlock{}, nil, fmt.Errorf("no predicted weather available for the rolling-horizon driver")
	}

	grids := rollinghorizon.WeatherGrids{
		BySampleHour:    make(map[int]dynamicdp.WeatherGrid, len(hours)),
		MaxForecastHour: make(map[int]int, len(hours)),
	}
	for _, h := range hours {
		predicted, err := store.ReadPredicted(h)
		if err != nil {
			return metrics.PlannedBlock{}, nil, fmt.Errorf("read predicted weather at sample %d: %w", h, err)
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
		ReplanFrequencyHours: cfg.DynamicRH.ReplanFrequencyHours,
		DeltaT:               cfg.DynamicDet.TimeGranularity,
		MinSpeedKnots:        cfg.Ship.MinSpeed(),
		MaxSpeedKnots:        cfg.Ship.MaxSpeed(),
		SpeedGranularity:     cfg.DynamicDet.SpeedGranularity,
	}
	result, err := rollinghorizon.Run(route, grids, cfg.Ship.ETAHours, ship, rhConfig)
	if err != nil {
		return metrics.PlannedBlock{}, nil, err
	}
	return metrics.PlannedBlockFromSchedule(string(result.Status), result.PlannedFuelKg, result.PlannedTimeH, result.Schedule), result.Schedule, nil
}

