package physics

import (
	"math"
	"testing"
)

func benchmarkShip() ShipParams {
	return ShipParams{
		LengthM:            200.0,
		BeamM:              32.0,
		DraftM:             12.0,
		DisplacementTonnes: 50000.0,
		BlockCoefficient:   0.75,
		RatedPowerKW:       10000.0,
		MinSpeedKnots:      8.0,
		MaxSpeedKnots:      15.7,
	}
}

func TestBeaufortFromWindSpeed(t *testing.T) {
	cases := []struct {
		kmh  float64
		want int
	}{
		{0, 0},
		{1.0, 0},   // 0.27 m/s
		{5.0, 1},   // 1.39 m/s
		{10.0, 2},  // 2.78 m/s
		{120.0, 12}, // 33.3 m/s
	}
	for _, c := range cases {
		if got := BeaufortFromWindSpeed(c.kmh); got != c.want {
			t.Errorf("BeaufortFromWindSpeed(%v) = %d, want %d", c.kmh, got, c.want)
		}
	}
}

func TestSpeedOverGround_CalmWaterMatchesSWS(t *testing.T) {
	ship := benchmarkShip()
	sws := 12.0
	sog := SpeedOverGround(sws, 0, 0, 0, 0, 0, 0, ship)
	if sog <= 0 || sog > sws+0.01 {
		t.Errorf("calm-water SOG = %v, want in (0, %v]", sog, sws)
	}
	// Beaufort 0 heading north with zero current should lose almost nothing.
	if math.Abs(sog-sws) > 0.5 {
		t.Errorf("calm-water SOG = %v, expected close to SWS %v", sog, sws)
	}
}

func TestSpeedOverGround_HighBeaufortReducesSpeed(t *testing.T) {
	ship := benchmarkShip()
	sws := 12.0
	calmSOG := SpeedOverGround(sws, 0, 0, 0, 0, 0, 0, ship)
	roughSOG := SpeedOverGround(sws, 0, 0, 0, math.Pi, 8, 4.0, ship)
	if roughSOG >= calmSOG {
		t.Errorf("rough-weather SOG (%v) should be less than calm SOG (%v)", roughSOG, calmSOG)
	}
}

func TestSpeedOverGround_FollowingCurrentIncreasesSOG(t *testing.T) {
	ship := benchmarkShip()
	sws := 12.0
	heading := 0.0 // due north
	noCurrent := SpeedOverGround(sws, 0, 0, heading, 0, 0, 0, ship)
	withCurrent := SpeedOverGround(sws, 3.0, 0, heading, 0, 0, 0, ship) // current also due north
	if withCurrent <= noCurrent {
		t.Errorf("following current should raise SOG: got %v vs %v", withCurrent, noCurrent)
	}
}

func TestFuelConsumptionRate_CubicAndFloored(t *testing.T) {
	if got := FuelConsumptionRate(0); got != 0.1 {
		t.Errorf("FuelConsumptionRate(0) = %v, want floor 0.1", got)
	}
	got := FuelConsumptionRate(10)
	want := 0.000706 * 1000
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FuelConsumptionRate(10) = %v, want %v", got, want)
	}
}

func TestInverseSWS_RoundTrips(t *testing.T) {
	ship := benchmarkShip()
	heading := 0.5
	w := Weather{WindSpeedKmh: 20, WindDirectionDeg: 45, Beaufort: 3, WaveHeightM: 1.2, CurrentSpeedKmh: 2, CurrentDirectionDeg: 10}

	for _, sws := range []float64{9.0, 12.0, 15.0} {
		target := SOGFromWeather(sws, heading, w, ship)
		result := InverseSWS(target, heading, w, ship)
		if result.Degraded {
			t.Fatalf("InverseSWS degraded unexpectedly for sws=%v target=%v", sws, target)
		}
		if math.Abs(result.SWS-sws) > 0.05 {
			t.Errorf("InverseSWS(%v) = %v, want close to %v", target, result.SWS, sws)
		}
	}
}

func TestInverseSWS_DegradesGracefullyOutOfRange(t *testing.T) {
	ship := benchmarkShip()
	result := InverseSWS(1000.0, 0, Calm, ship)
	if result.SWS != 1000.0 || !result.Degraded {
		t.Errorf("expected degraded fallback to target, got %+v", result)
	}
}

func TestBearingDeg_CardinalDirections(t *testing.T) {
	cases := []struct {
		lat1, lon1, lat2, lon2, want float64
	}{
		{0, 0, 1, 0, 0},     // due north
		{0, 0, 0, 1, 90},    // due east
		{0, 0, -1, 0, 180},  // due south
		{0, 0, 0, -1, 270},  // due west
	}
	for _, c := range cases {
		got := BearingDeg(c.lat1, c.lon1, c.lat2, c.lon2)
		if math.Abs(got-c.want) > 1.0 {
			t.Errorf("BearingDeg(%v,%v -> %v,%v) = %v, want ~%v", c.lat1, c.lon1, c.lat2, c.lon2, got, c.want)
		}
	}
}

func TestBearingDeg_AlwaysInRange(t *testing.T) {
	got := BearingDeg(10, 170, -5, -170)
	if got < 0 || got >= 360 {
		t.Errorf("BearingDeg out of [0,360): %v", got)
	}
}

func TestCO2Emissions(t *testing.T) {
	if got := CO2Emissions(100); got != 317.0 {
		t.Errorf("CO2Emissions(100) = %v, want 317.0", got)
	}
}

func TestSanitizeWeather_ReplacesNaN(t *testing.T) {
	w := Weather{WindSpeedKmh: math.NaN(), Beaufort: -1}
	s := SanitizeWeather(w)
	if s.WindSpeedKmh != 0 || s.Beaufort != 0 {
		t.Errorf("SanitizeWeather did not clean NaN/negative fields: %+v", s)
	}
}
