// Package staticlp implements the segment-level static planner: it
// collapses the route into a handful of coarse segments, builds a discrete
// speed grid and per-segment SOG table, and solves the resulting
// multiple-choice-knapsack MILP for the fuel-minimal one-speed-per-segment
// assignment meeting a hard ETA budget.
package staticlp

import (
	"fmt"
	"math"

	"github.com/amishafir/voyage-optimization/internal/physics"
	"github.com/amishafir/voyage-optimization/internal/voyage"
)

// SegmentData is one coarse segment's aggregated geometry and weather.
type SegmentData struct {
	Segment      int
	FirstNodeID  int
	LengthNM     float64
	HeadingDeg   float64
	Weather      physics.Weather
}

// Problem is the transform's output: everything the solver needs.
type Problem struct {
	Segments []SegmentData
	Speeds   []float64   // K evenly spaced speed-grid values (knots)
	FCR      []float64   // FCR[k] = fuel consumption rate at Speeds[k]
	SOGTable [][]float64 // SOGTable[s][k] = SOG under segment s's weather at Speeds[k]
	SOGLower []float64   // per-segment min over k of SOGTable[s][k]
	SOGUpper []float64   // per-segment max over k of SOGTable[s][k]
	ETAHours float64
}

// circularMeanDeg averages angles (degrees) via atan2(mean sin, mean cos),
// wrapped to [0, 360).
func circularMeanDeg(anglesDeg []float64) float64 {
	if len(anglesDeg) == 0 {
		return 0
	}
	var sumSin, sumCos float64
	for _, a := range anglesDeg {
		rad := a * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	mean := math.Atan2(sumSin/float64(len(anglesDeg)), sumCos/float64(len(anglesDeg))) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	return mean
}

func arithmeticMean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// aggregateSegmentWeather averages the weather samples of every node in a
// segment: scalar fields by arithmetic mean (NaN-skipping), direction
// fields by circular mean, Beaufort re-derived from the averaged wind speed.
func aggregateSegmentWeather(samples []physics.Weather) physics.Weather {
	var windSpeeds, waveHeights, currentSpeeds []float64
	var windDirs, currentDirs []float64
	for _, s := range samples {
		windSpeeds = append(windSpeeds, s.WindSpeedKmh)
		waveHeights = append(waveHeights, s.WaveHeightM)
		currentSpeeds = append(currentSpeeds, s.CurrentSpeedKmh)
		windDirs = append(windDirs, s.WindDirectionDeg)
		currentDirs = append(currentDirs, s.CurrentDirectionDeg)
	}
	windSpeed := arithmeticMean(windSpeeds)
	return physics.Weather{
		WindSpeedKmh:        windSpeed,
		WindDirectionDeg:    circularMeanDeg(windDirs),
		Beaufort:            physics.BeaufortFromWindSpeed(windSpeed),
		WaveHeightM:         arithmeticMean(waveHeights),
		CurrentSpeedKmh:     arithmeticMean(currentSpeeds),
		CurrentDirectionDeg: circularMeanDeg(currentDirs),
	}
}

// Transform builds a Problem from the route and a snapshot of per-node
// actual weather, aggregating each route segment's weather into one
// representative reading.
func Transform(route *voyage.Route, weatherByNode map[int]voyage.Weather, etaHours float64, minSpeed, maxSpeed float64, numSpeeds int, ship physics.ShipParams) (*Problem, error) {
	s := route.NumSegments()
	if s == 0 {
		return nil, fmt.Errorf("route has no segments")
	}
	if numSpeeds < 1 {
		return nil, fmt.Errorf("numSpeeds must be >= 1, got %d", numSpeeds)
	}

	// Step 1+2: per-segment first/last original node, length, and
	// aggregated weather over every node falling in that segment.
	type segAccum struct {
		firstIdx, lastIdx int
		samples           []physics.Weather
	}
	accum := make([]segAccum, s)
	for i := range accum {
		accum[i].firstIdx = -1
	}

	for _, wp := range route.Waypoints {
		if wp.Segment < 0 || wp.Segment >= s {
			continue
		}
		a := &accum[wp.Segment]
		if a.firstIdx == -1 {
			a.firstIdx = wp.NodeID
		}
		a.lastIdx = wp.NodeID

		w := voyage.Weather{}
		if wv, ok := weatherByNode[wp.NodeID]; ok {
			w = wv
		}
		a.samples = append(a.samples, toPhysicsWeather(w))
	}

	segments := make([]SegmentData, s)
	for seg := 0; seg < s; seg++ {
		a := accum[seg]
		if a.firstIdx == -1 {
			return nil, fmt.Errorf("segment %d has no waypoints", seg)
		}
		first := route.Waypoints[a.firstIdx]
		// A segment ends at the next segment's first (original) node; the
		// final segment ends at its own last node.
		endIdx := a.lastIdx
		if seg+1 < s && accum[seg+1].firstIdx != -1 {
			endIdx = accum[seg+1].firstIdx
		}
		last := route.Waypoints[endIdx]
		length := last.CumulativeDistance - first.CumulativeDistance
		heading := physics.BearingDeg(first.Lat, first.Lon, last.Lat, last.Lon)

		segments[seg] = SegmentData{
			Segment:     seg,
			FirstNodeID: first.NodeID,
			LengthNM:    length,
			HeadingDeg:  heading,
			Weather:     aggregateSegmentWeather(a.samples),
		}
	}

	// Step 3: speed grid.
	speeds := make([]float64, numSpeeds)
	if numSpeeds == 1 {
		speeds[0] = minSpeed
	} else {
		step := (maxSpeed - minSpeed) / float64(numSpeeds-1)
		for k := range speeds {
			speeds[k] = minSpeed + float64(k)*step
		}
	}

	// Step 4+5: SOG table and FCR grid.
	fcr := make([]float64, numSpeeds)
	for k, v := range speeds {
		fcr[k] = physics.FuelConsumptionRate(v)
	}

	sogTable := make([][]float64, s)
	sogLower := make([]float64, s)
	sogUpper := make([]float64, s)
	for seg := 0; seg < s; seg++ {
		headingRad := segments[seg].HeadingDeg * math.Pi / 180
		row := make([]float64, numSpeeds)
		lo, hi := math.Inf(1), math.Inf(-1)
		for k, v := range speeds {
			sog := physics.SOGFromWeather(v, headingRad, segments[seg].Weather, ship)
			row[k] = sog
			if sog < lo {
				lo = sog
			}
			if sog > hi {
				hi = sog
			}
		}
		sogTable[seg] = row
		sogLower[seg] = lo
		sogUpper[seg] = hi
	}

	return &Problem{
		Segments: segments,
		Speeds:   speeds,
		FCR:      fcr,
		SOGTable: sogTable,
		SOGLower: sogLower,
		SOGUpper: sogUpper,
		ETAHours: etaHours,
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
