// Package weatherstore is the persistent, keyed store of per-waypoint
// observed and forecast weather that every optimization tier reads from.
// It is SQLite-backed (modernc.org/sqlite, pure Go) rather than HDF5:
// no pure-Go HDF5 binding exists, and SQLite satisfies the same filtered-
// read and append-only-growth contract via WAL mode and primary-key
// upserts.
package weatherstore

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/amishafir/voyage-optimization/internal/logger"
	"github.com/amishafir/voyage-optimization/internal/voyage"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding one voyage's weather and metadata.
type Store struct {
	sql *sql.DB
}

func defaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "weather.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "weather.db")
}

// Open opens (or creates) the weather store at path, running migrations.
// An empty path uses the default location in the working directory.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath()
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open weather store: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping weather store: %w", err)
	}
	s := &Store{sql: sqlDB}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate weather store: %w", err)
	}
	logger.Success("STORE", fmt.Sprintf("Opened %s", path))
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) migrate() error {
	version := 0
	s.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := s.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS metadata (
				node_id         INTEGER PRIMARY KEY,
				lat             REAL NOT NULL,
				lon             REAL NOT NULL,
				name            TEXT NOT NULL,
				is_original     INTEGER NOT NULL,
				cum_distance_nm REAL NOT NULL,
				segment         INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS actual_weather (
				node_id              INTEGER NOT NULL,
				sample_hour          INTEGER NOT NULL,
				wind_speed_kmh       REAL,
				wind_direction_deg   REAL,
				beaufort             INTEGER,
				wave_height_m        REAL,
				current_speed_kmh    REAL,
				current_direction_deg REAL,
				PRIMARY KEY (node_id, sample_hour)
			);
			CREATE INDEX IF NOT EXISTS idx_actual_sample ON actual_weather(sample_hour);

			CREATE TABLE IF NOT EXISTS predicted_weather (
				node_id              INTEGER NOT NULL,
				sample_hour          INTEGER NOT NULL,
				forecast_hour        INTEGER NOT NULL,
				wind_speed_kmh       REAL,
				wind_direction_deg   REAL,
				beaufort             INTEGER,
				wave_height_m        REAL,
				current_speed_kmh    REAL,
				current_direction_deg REAL,
				PRIMARY KEY (node_id, sample_hour, forecast_hour)
			);
			CREATE INDEX IF NOT EXISTS idx_predicted_sample ON predicted_weather(sample_hour);

			CREATE TABLE IF NOT EXISTS run_results (
				run_id     TEXT PRIMARY KEY,
				approach   TEXT NOT NULL,
				created_at TEXT NOT NULL,
				result_json TEXT NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("STORE", "Applied migration v1")
	}

	return nil
}

// WriteMetadata replaces the metadata table with the given route's
// waypoints. Metadata is fixed after creation; callers write it once.
func (s *Store) WriteMetadata(route *voyage.Route) error {
	tx, err := s.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin metadata write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO metadata (node_id, lat, lon, name, is_original, cum_distance_nm, segment)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for _, wp := range route.Waypoints {
		isOriginal := 0
		if wp.IsOriginal {
			isOriginal = 1
		}
		if _, err := stmt.Exec(wp.NodeID, wp.Lat, wp.Lon, wp.Name, isOriginal, wp.CumulativeDistance, wp.Segment); err != nil {
			return fmt.Errorf("insert metadata node %d: %w", wp.NodeID, err)
		}
	}
	return tx.Commit()
}

// ReadMetadata returns the full route, ordered by node id.
func (s *Store) ReadMetadata() (*voyage.Route, error) {
	rows, err := s.sql.Query(`
		SELECT node_id, lat, lon, name, is_original, cum_distance_nm, segment
		FROM metadata ORDER BY node_id
	`)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	defer rows.Close()

	var route voyage.Route
	for rows.Next() {
		var wp voyage.Waypoint
		var isOriginal int
		if err := rows.Scan(&wp.NodeID, &wp.Lat, &wp.Lon, &wp.Name, &isOriginal, &wp.CumulativeDistance, &wp.Segment); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		wp.IsOriginal = isOriginal != 0
		route.Waypoints = append(route.Waypoints, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata: %w", err)
	}
	return &route, nil
}

func scanWeatherRow(scan func(dest ...any) error) (voyage.Weather, error) {
	var w voyage.Weather
	var windSpeed, windDir, waveHeight, currentSpeed, currentDir sql.NullFloat64
	var beaufort sql.NullInt64
	if err := scan(&windSpeed, &windDir, &beaufort, &waveHeight, &currentSpeed, &currentDir); err != nil {
		return w, err
	}
	w.WindSpeedKmh = nanIfNull(windSpeed)
	w.WindDirectionDeg = nanIfNull(windDir)
	if beaufort.Valid {
		w.Beaufort = int(beaufort.Int64)
	}
	w.WaveHeightM = nanIfNull(waveHeight)
	w.CurrentSpeedKmh = nanIfNull(currentSpeed)
	w.CurrentDirectionDeg = nanIfNull(currentDir)
	return w, nil
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// AppendActual inserts (or replaces) one observed weather reading.
func (s *Store) AppendActual(nodeID, sampleHour int, w voyage.Weather) error {
	_, err := s.sql.Exec(`
		INSERT OR REPLACE INTO actual_weather
			(node_id, sample_hour, wind_speed_kmh, wind_direction_deg, beaufort, wave_height_m, current_speed_kmh, current_direction_deg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, nodeID, sampleHour, w.WindSpeedKmh, w.WindDirectionDeg, w.Beaufort, w.WaveHeightM, w.CurrentSpeedKmh, w.CurrentDirectionDeg)
	if err != nil {
		return fmt.Errorf("append actual weather node=%d hour=%d: %w", nodeID, sampleHour, err)
	}
	return nil
}

// AppendPredicted inserts (or replaces) one forecast weather reading.
func (s *Store) AppendPredicted(nodeID, sampleHour, forecastHour int, w voyage.Weather) error {
	_, err := s.sql.Exec(`
		INSERT OR REPLACE INTO predicted_weather
			(node_id, sample_hour, forecast_hour, wind_speed_kmh, wind_direction_deg, beaufort, wave_height_m, current_speed_kmh, current_direction_deg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nodeID, sampleHour, forecastHour, w.WindSpeedKmh, w.WindDirectionDeg, w.Beaufort, w.WaveHeightM, w.CurrentSpeedKmh, w.CurrentDirectionDeg)
	if err != nil {
		return fmt.Errorf("append predicted weather node=%d sample=%d forecast=%d: %w", nodeID, sampleHour, forecastHour, err)
	}
	return nil
}

// ReadActual returns the observed weather for every node at sampleHour,
// keyed by node id. Missing nodes are simply absent from the map.
func (s *Store) ReadActual(sampleHour int) (map[int]voyage.Weather, error) {
	rows, err := s.sql.Query(`
		SELECT node_id, wind_speed_kmh, wind_direction_deg, beaufort, wave_height_m, current_speed_kmh, current_direction_deg
		FROM actual_weather WHERE sample_hour = ? ORDER BY node_id
	`, sampleHour)
	if err != nil {
		return nil, fmt.Errorf("read actual weather at hour %d: %w", sampleHour, err)
	}
	defer rows.Close()

	out := make(map[int]voyage.Weather)
	for rows.Next() {
		var nodeID int
		w, err := scanWeatherRow(func(dest ...any) error {
			return rows.Scan(append([]any{&nodeID}, dest...)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scan actual weather row: %w", err)
		}
		out[nodeID] = w
	}
	return out, rows.Err()
}

// ReadPredicted returns the forecast weather for every node issued at
// sampleHour, keyed by (node id, forecast hour).
func (s *Store) ReadPredicted(sampleHour int) (map[int]map[int]voyage.Weather, error) {
	rows, err := s.sql.Query(`
		SELECT node_id, forecast_hour, wind_speed_kmh, wind_direction_deg, beaufort, wave_height_m, current_speed_kmh, current_direction_deg
		FROM predicted_weather WHERE sample_hour = ? ORDER BY node_id, forecast_hour
	`, sampleHour)
	if err != nil {
		return nil, fmt.Errorf("read predicted weather at sample %d: %w", sampleHour, err)
	}
	defer rows.Close()

	out := make(map[int]map[int]voyage.Weather)
	for rows.Next() {
		var nodeID, forecastHour int
		w, err := scanWeatherRow(func(dest ...any) error {
			return rows.Scan(append([]any{&nodeID, &forecastHour}, dest...)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scan predicted weather row: %w", err)
		}
		if out[nodeID] == nil {
			out[nodeID] = make(map[int]voyage.Weather)
		}
		out[nodeID][forecastHour] = w
	}
	return out, rows.Err()
}

// CompletedSampleHours returns the sorted distinct sample_hour values
// present in actual_weather, used by the collector to resume.
func (s *Store) CompletedSampleHours() ([]int, error) {
	rows, err := s.sql.Query(`SELECT DISTINCT sample_hour FROM actual_weather ORDER BY sample_hour`)
	if err != nil {
		return nil, fmt.Errorf("read completed sample hours: %w", err)
	}
	defer rows.Close()

	var hours []int
	for rows.Next() {
		var h int
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan sample hour: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// AvailablePredictedSampleHours returns the sorted distinct sample_hour
// values present in predicted_weather.
func (s *Store) AvailablePredictedSampleHours() ([]int, error) {
	rows, err := s.sql.Query(`SELECT DISTINCT sample_hour FROM predicted_weather ORDER BY sample_hour`)
	if err != nil {
		return nil, fmt.Errorf("read available predicted sample hours: %w", err)
	}
	defer rows.Close()

	var hours []int
	for rows.Next() {
		var h int
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan predicted sample hour: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// SaveRunResult persists a JSON result blob under its run id and approach
// tag, for internal/metrics.
func (s *Store) SaveRunResult(runID, approach, createdAt, resultJSON string) error {
	_, err := s.sql.Exec(`
		INSERT OR REPLACE INTO run_results (run_id, approach, created_at, result_json)
		VALUES (?, ?, ?, ?)
	`, runID, approach, createdAt, resultJSON)
	if err != nil {
		return fmt.Errorf("save run result %s: %w", runID, err)
	}
	return nil
}

// RunResultRow is one row of run_results, as read back by RunID or approach.
type RunResultRow struct {
	RunID       string
	Approach    string
	CreatedAt   string
	ResultJSON  string
}

// GetRunResult returns the stored row for a single run id, or an error if
// no such run exists.
func (s *Store) GetRunResult(runID string) (*RunResultRow, error) {
	row := s.sql.QueryRow(`SELECT run_id, approach, created_at, result_json FROM run_results WHERE run_id = ?`, runID)
	var r RunResultRow
	if err := row.Scan(&r.RunID, &r.Approach, &r.CreatedAt, &r.ResultJSON); err != nil {
		return nil, fmt.Errorf("get run result %s: %w", runID, err)
	}
	return &r, nil
}

// ListRunResults returns every stored run for the given approach tag,
// newest first. An empty approach returns every run regardless of tag.
func (s *Store) ListRunResults(approach string) ([]RunResultRow, error) {
	query := `SELECT run_id, approach, created_at, result_json FROM run_results`
	args := []any{}
	if approach != "" {
		query += ` WHERE approach = ?`
		args = append(args, approach)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list run results: %w", err)
	}
	defer rows.Close()

	var out []RunResultRow
	for rows.Next() {
		var r RunResultRow
		if err := rows.Scan(&r.RunID, &r.Approach, &r.CreatedAt, &r.ResultJSON); err != nil {
			return nil, fmt.Errorf("scan run result row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
