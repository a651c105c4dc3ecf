package simulate

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteTimeSeriesCSV writes a Result's leg-by-leg rows to path, one row per
// leg plus a header, mirroring the reference ledger-CSV writer shape.
func WriteTimeSeriesCSV(path string, rows []LegRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"index",
		"node_id",
		"segment",
		"lat",
		"lon",
		"sws_knots",
		"sog_knots",
		"distance_nm",
		"time_h",
		"fuel_kg",
		"cum_distance_nm",
		"cum_time_h",
		"cum_fuel_kg",
		"beaufort",
		"wave_height_m",
		"current_knots",
		"heading_deg",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.NodeID),
			strconv.Itoa(r.Segment),
			fmtFloat(r.Lat),
			fmtFloat(r.Lon),
			fmtFloat(r.SWSKnots),
			fmtFloat(r.SOGKnots),
			fmtFloat(r.DistanceNM),
			fmtFloat(r.TimeH),
			fmtFloat(r.FuelKg),
			fmtFloat(r.CumDistanceNM),
			fmtFloat(r.CumTimeH),
			fmtFloat(r.CumFuelKg),
			strconv.Itoa(r.Beaufort),
			fmtFloat(r.WaveHeightM),
			fmtFloat(r.CurrentKnots),
			fmtFloat(r.HeadingDeg),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
