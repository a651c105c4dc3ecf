package weatherstore

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/amishafir/voyage-optimization/internal/voyage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weather.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRoute() *voyage.Route {
	return &voyage.Route{Waypoints: []voyage.Waypoint{
		{NodeID: 0, Lat: 1, Lon: 2, Name: "A", IsOriginal: true, CumulativeDistance: 0, Segment: 0},
		{NodeID: 1, Lat: 1.1, Lon: 2.1, Name: "B", IsOriginal: false, CumulativeDistance: 5, Segment: 0},
		{NodeID: 2, Lat: 1.2, Lon: 2.2, Name: "C", IsOriginal: true, CumulativeDistance: 10, Segment: 0},
	}}
}

func TestStore_MetadataRoundTrip(t *testing.T) {
	s := openTestStore(t)
	route := testRoute()

	if err := s.WriteMetadata(route); err != nil {
		t.Fatalf("WriteMetadata() error: %v", err)
	}
	got, err := s.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata() error: %v", err)
	}
	if len(got.Waypoints) != len(route.Waypoints) {
		t.Fatalf("got %d waypoints, want %d", len(got.Waypoints), len(route.Waypoints))
	}
	for i, wp := range got.Waypoints {
		if wp != route.Waypoints[i] {
			t.Errorf("waypoint %d = %+v, want %+v", i, wp, route.Waypoints[i])
		}
	}
}

func TestStore_ActualWeatherRoundTrip(t *testing.T) {
	s := openTestStore(t)
	w := voyage.Weather{WindSpeedKmh: 20, WindDirectionDeg: 90, Beaufort: 4, WaveHeightM: 1.5, CurrentSpeedKmh: 2, CurrentDirectionDeg: 45}

	if err := s.AppendActual(0, 5, w); err != nil {
		t.Fatalf("AppendActual() error: %v", err)
	}
	got, err := s.ReadActual(5)
	if err != nil {
		t.Fatalf("ReadActual() error: %v", err)
	}
	readBack, ok := got[0]
	if !ok {
		t.Fatal("expected node 0 in actual weather read")
	}
	if readBack != w {
		t.Errorf("read back %+v, want %+v", readBack, w)
	}
}

func TestStore_ActualWeatherUpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	w1 := voyage.Weather{WindSpeedKmh: 10}
	w2 := voyage.Weather{WindSpeedKmh: 30}

	s.AppendActual(1, 0, w1)
	s.AppendActual(1, 0, w2)

	got, err := s.ReadActual(0)
	if err != nil {
		t.Fatalf("ReadActual() error: %v", err)
	}
	if got[1].WindSpeedKmh != 30 {
		t.Errorf("expected upsert to replace wind speed, got %v", got[1].WindSpeedKmh)
	}
}

func TestStore_PredictedWeatherRoundTrip(t *testing.T) {
	s := openTestStore(t)
	w := voyage.Weather{WindSpeedKmh: 15, Beaufort: 3}

	if err := s.AppendPredicted(2, 10, 14, w); err != nil {
		t.Fatalf("AppendPredicted() error: %v", err)
	}
	got, err := s.ReadPredicted(10)
	if err != nil {
		t.Fatalf("ReadPredicted() error: %v", err)
	}
	if got[2][14].WindSpeedKmh != 15 {
		t.Errorf("expected forecast wind speed 15, got %+v", got)
	}
}

func TestStore_CompletedSampleHours(t *testing.T) {
	s := openTestStore(t)
	s.AppendActual(0, 3, voyage.Weather{})
	s.AppendActual(0, 1, voyage.Weather{})
	s.AppendActual(1, 3, voyage.Weather{})

	hours, err := s.CompletedSampleHours()
	if err != nil {
		t.Fatalf("CompletedSampleHours() error: %v", err)
	}
	want := []int{1, 3}
	if len(hours) != len(want) || hours[0] != want[0] || hours[1] != want[1] {
		t.Errorf("CompletedSampleHours() = %v, want %v", hours, want)
	}
}

func TestStore_MissingActualReadingYieldsNaN(t *testing.T) {
	s := openTestStore(t)
	s.AppendActual(0, 0, voyage.Weather{WindSpeedKmh: math.NaN(), Beaufort: 0})

	got, err := s.ReadActual(0)
	if err != nil {
		t.Fatalf("ReadActual() error: %v", err)
	}
	if !math.IsNaN(got[0].WindSpeedKmh) {
		t.Errorf("expected NaN wind speed round trip, got %v", got[0].WindSpeedKmh)
	}
}

func TestStore_SaveRunResult(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveRunResult("run-1", "static_lp", "2026-01-01T00:00:00Z", `{"ok":true}`); err != nil {
		t.Fatalf("SaveRunResult() error: %v", err)
	}
}

func TestStore_GetRunResult(t *testing.T) {
	s := openTestStore(t)
	s.SaveRunResult("run-2", "dynamic_det", "2026-01-02T00:00:00Z", `{"fuel":1}`)

	got, err := s.GetRunResult("run-2")
	if err != nil {
		t.Fatalf("GetRunResult() error: %v", err)
	}
	if got.Approach != "dynamic_det" || got.ResultJSON != `{"fuel":1}` {
		t.Errorf("GetRunResult() = %+v, unexpected fields", got)
	}
}

func TestStore_GetRunResult_MissingRunErrors(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRunResult("does-not-exist"); err == nil {
		t.Fatal("expected an error for a missing run id")
	}
}

func TestStore_ListRunResults_FiltersByApproach(t *testing.T) {
	s := openTestStore(t)
	s.SaveRunResult("run-a", "static_lp", "2026-01-01T00:00:00Z", `{}`)
	s.SaveRunResult("run-b", "dynamic_det", "2026-01-02T00:00:00Z", `{}`)
	s.SaveRunResult("run-c", "static_lp", "2026-01-03T00:00:00Z", `{}`)

	got, err := s.ListRunResults("static_lp")
	if err != nil {
		t.Fatalf("ListRunResults() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].RunID != "run-c" {
		t.Errorf("expected newest-first ordering, got %+v", got)
	}
}
