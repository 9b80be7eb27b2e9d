// Package airspace answers facility-ceiling and ground-elevation queries
// against a cached regulatory grid. The grid is loaded once at construction
// and read-only afterwards, so concurrent queries need no locking.
package airspace

import (
	"encoding/json"
	"fmt"
	"os"

	"dronewatch/internal/geo"
	"dronewatch/internal/telemetry"
)

// elevationRadiusM bounds how far an elevation sample may be from the query
// point before the configured default takes over.
const elevationRadiusM = 500.0

// Cell is one axis-aligned facility-map cell with a maximum AGL ceiling.
type Cell struct {
	LatMin         float64 `json:"latMin"`
	LatMax         float64 `json:"latMax"`
	LonMin         float64 `json:"lonMin"`
	LonMax         float64 `json:"lonMax"`
	MaxAltitudeAGL float64 `json:"maxAltitudeAgl"`
}

// Contains reports whether the point lies within the cell, borders included.
func (c Cell) Contains(lat, lon float64) bool {
	return c.LatMin <= lat && lat <= c.LatMax && c.LonMin <= lon && lon <= c.LonMax
}

func (c Cell) area() float64 {
	return (c.LatMax - c.LatMin) * (c.LonMax - c.LonMin)
}

// ElevationSample is a cached ground-elevation point.
type ElevationSample struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	ElevationMSL float64 `json:"elevationMsl"`
}

type gridFile struct {
	Cells      []Cell            `json:"cells"`
	Elevations []ElevationSample `json:"elevations"`
}

// Service answers ceiling and altitude-conversion queries.
type Service struct {
	cells            []Cell
	elevations       []ElevationSample
	defaultElevation float64
}

// New returns a Service with no cells loaded; every ceiling query misses and
// every elevation query falls back to defaultElevation.
func New(defaultElevation float64) *Service {
	return &Service{defaultElevation: defaultElevation}
}

// Load reads a cached facility grid file. A malformed file is a fatal
// configuration error: the caller must not serve traffic without the grid it
// asked for.
func Load(path string, defaultElevation float64) (*Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facility grid: %w", err)
	}
	var gf gridFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse facility grid %s: %w", path, err)
	}
	for i, c := range gf.Cells {
		if c.LatMin > c.LatMax || c.LonMin > c.LonMax {
			return nil, fmt.Errorf("facility grid %s: cell %d has inverted ranges", path, i)
		}
		if c.MaxAltitudeAGL < 0 {
			return nil, fmt.Errorf("facility grid %s: cell %d has negative ceiling", path, i)
		}
	}
	return &Service{
		cells:            gf.Cells,
		elevations:       gf.Elevations,
		defaultElevation: defaultElevation,
	}, nil
}

// Cells returns the loaded grid for visualization.
func (s *Service) Cells() []Cell {
	return s.cells
}

// CeilingAt returns the ceiling of the cell containing the point, or false if
// no cell matches. Overlapping cells resolve to the smallest-area cell so the
// answer never depends on load order.
func (s *Service) CeilingAt(lat, lon float64) (float64, bool) {
	best := -1
	for i, c := range s.cells {
		if !c.Contains(lat, lon) {
			continue
		}
		if best < 0 || c.area() < s.cells[best].area() {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return s.cells[best].MaxAltitudeAGL, true
}

// GroundElevation returns the elevation at the point and whether a cached
// sample supplied it. With no sample within range the configured default is
// returned with false.
func (s *Service) GroundElevation(lat, lon float64) (float64, bool) {
	bestDist := elevationRadiusM
	elev := s.defaultElevation
	known := false
	for _, e := range s.elevations {
		d := geo.Haversine(lat, lon, e.Lat, e.Lon)
		if d <= bestDist {
			bestDist = d
			elev = e.ElevationMSL
			known = true
		}
	}
	return elev, known
}

// ToAGL converts an MSL altitude to AGL at the point.
func (s *Service) ToAGL(lat, lon, altMSL float64) float64 {
	elev, _ := s.GroundElevation(lat, lon)
	return altMSL - elev
}

// ToMSL converts an AGL altitude to MSL at the point. Inverse of ToAGL for a
// fixed elevation model.
func (s *Service) ToMSL(lat, lon, altAGL float64) float64 {
	elev, _ := s.GroundElevation(lat, lon)
	return altAGL + elev
}

// CheckViolation reports whether altAGL exceeds the ceiling at the point.
// Sitting exactly on the ceiling is not a violation, and a point outside
// every cell never violates.
func (s *Service) CheckViolation(lat, lon, altAGL float64) bool {
	ceiling, ok := s.CeilingAt(lat, lon)
	if !ok {
		return false
	}
	return altAGL > ceiling
}

// Annotate fills each drone's ceiling_violation field in place. Queries never
// fail; absence of grid data degrades to "no violation".
func (s *Service) Annotate(snap *telemetry.Snapshot) {
	for i := range snap.Drones {
		d := &snap.Drones[i]
		v := s.CheckViolation(d.Lat, d.Lon, d.AltAGL)
		d.CeilingViolation = &v
	}
}
