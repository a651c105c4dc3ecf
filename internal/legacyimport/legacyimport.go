// Package legacyimport reads a legacy route dump and reconstructs it into
// a fresh weather store. The legacy format is a Go-native stand-in for a
// pickled Python Node list: a flat JSON array, one record per waypoint,
// carrying the same fields a Python pickle of the original collector's
// Node objects would hold.
package legacyimport

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/amishafir/voyage-optimization/internal/logger"
	"github.com/amishafir/voyage-optimization/internal/voyage"
	"github.com/amishafir/voyage-optimization/internal/weatherstore"
)

// Record is one raw waypoint entry as it appears in the legacy dump.
type Record struct {
	NodeID             int     `json:"node_id"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Name               string  `json:"name"`
	IsOriginal         bool    `json:"is_original"`
	CumulativeDistance float64 `json:"cumulative_distance_nm"`
}

// ReadRecords parses a legacy route dump file into its raw records,
// without validating or indexing them.
func ReadRecords(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy dump %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse legacy dump %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("legacy dump %s has no records", path)
	}
	return records, nil
}

// ToRoute validates a raw record list and reconstructs a voyage.Route,
// inferring segment indices: each original waypoint except the last
// starts one segment.
func ToRoute(records []Record) (*voyage.Route, error) {
	for i, r := range records {
		if r.NodeID != i {
			return nil, fmt.Errorf("record %d has non-dense node id %d", i, r.NodeID)
		}
		if i > 0 && r.CumulativeDistance < records[i-1].CumulativeDistance {
			return nil, fmt.Errorf("record %d: cumulative distance decreases", i)
		}
	}
	if !records[0].IsOriginal || records[0].CumulativeDistance != 0 {
		return nil, fmt.Errorf("first record must be an original waypoint at distance 0")
	}
	if !records[len(records)-1].IsOriginal {
		return nil, fmt.Errorf("last record must be an original waypoint")
	}

	segment := -1
	waypoints := make([]voyage.Waypoint, len(records))
	for i, r := range records {
		if r.IsOriginal && i != len(records)-1 {
			segment++
		}
		waypoints[i] = voyage.Waypoint{
			NodeID:             r.NodeID,
			Lat:                r.Lat,
			Lon:                r.Lon,
			Name:               r.Name,
			IsOriginal:         r.IsOriginal,
			CumulativeDistance: r.CumulativeDistance,
			Segment:            maxInt(segment, 0),
		}
	}
	route := &voyage.Route{Waypoints: waypoints}
	if err := route.Validate(); err != nil {
		return nil, fmt.Errorf("reconstructed route failed validation: %w", err)
	}
	return route, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Import reads a legacy route dump and writes its reconstructed route into
// a fresh weather store at storePath, creating the store if it does not
// exist.
func Import(dumpPath, storePath string) (*voyage.Route, error) {
	records, err := ReadRecords(dumpPath)
	if err != nil {
		return nil, err
	}
	route, err := ToRoute(records)
	if err != nil {
		return nil, err
	}

	store, err := weatherstore.Open(storePath)
	if err != nil {
		return nil, fmt.Errorf("open target store: %w", err)
	}
	defer store.Close()

	if err := store.WriteMetadata(route); err != nil {
		return nil, fmt.Errorf("write imported metadata: %w", err)
	}
	logger.Success("IMPORT", fmt.Sprintf("Imported %d waypoints (%d segments) from %s", len(route.Waypoints), route.NumSegments(), dumpPath))
	return route, nil
}
