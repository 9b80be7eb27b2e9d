// Package playback replays recorded flight logs as time-indexed telemetry
// snapshots. A log is parsed and validated once at load; queries afterwards
// are deterministic reads of immutable data.
package playback

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync/atomic"

	"dronewatch/internal/geo"
	"dronewatch/internal/telemetry"
)

// Adapter states.
const (
	StateUnloaded  = "unloaded"
	StateLoaded    = "loaded"
	StateExhausted = "exhausted"
)

// LoadError marks a malformed or inconsistent flight log. It is fatal at
// startup: the process must not serve playback traffic with a half-loaded log.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load playback log %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Adapter owns one loaded flight log. Frames are sorted by strictly
// increasing time, validated once at load and trusted afterwards.
type Adapter struct {
	originLat float64
	originLon float64

	frames    []telemetry.Snapshot
	metadata  map[string]any
	exhausted atomic.Bool
}

// uavRecord is one drone's raw state inside a timestep. Position is either
// ENU meters (converted through the scenario origin) or, when Lat/Lon are
// present, geodetic with position[2] as the AGL altitude.
type uavRecord struct {
	Position         []float64 `json:"position"`
	Velocity         []float64 `json:"velocity"`
	Battery          float64   `json:"battery"`
	OperationalState string    `json:"operational_state"`
	Lat              *float64  `json:"lat"`
	Lon              *float64  `json:"lon"`
}

type timestep struct {
	Time float64              `json:"time"`
	UAVs map[string]uavRecord `json:"uavs"`
}

type logFile struct {
	Metadata  map[string]any `json:"metadata"`
	Timesteps []timestep     `json:"timesteps"`
}

// New returns an unloaded adapter with the given scenario origin for ENU
// conversion.
func New(originLat, originLon float64) *Adapter {
	return &Adapter{originLat: originLat, originLon: originLon}
}

// Load parses the simulation export at path. Malformed JSON, missing
// timesteps, and non-monotonic timestamps are rejected here, never patched.
func (a *Adapter) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	var lf logFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if len(lf.Timesteps) == 0 {
		return &LoadError{Path: path, Err: fmt.Errorf("no timesteps")}
	}

	frames := make([]telemetry.Snapshot, 0, len(lf.Timesteps))
	var prev float64
	for i, ts := range lf.Timesteps {
		if i > 0 && ts.Time <= prev {
			return &LoadError{Path: path, Err: fmt.Errorf("timestamps not strictly increasing at index %d (%.3f after %.3f)", i, ts.Time, prev)}
		}
		prev = ts.Time
		frames = append(frames, a.parseTimestep(ts))
	}

	a.frames = frames
	a.metadata = lf.Metadata
	a.exhausted.Store(false)
	return nil
}

// State reports the adapter lifecycle state.
func (a *Adapter) State() string {
	switch {
	case a.frames == nil:
		return StateUnloaded
	case a.exhausted.Load():
		return StateExhausted
	default:
		return StateLoaded
	}
}

// Duration returns the time of the final frame.
func (a *Adapter) Duration() float64 {
	if len(a.frames) == 0 {
		return 0
	}
	return a.frames[len(a.frames)-1].Time
}

// Metadata returns the log's metadata block.
func (a *Adapter) Metadata() map[string]any {
	return a.metadata
}

// FrameAt returns the snapshot with the greatest time <= t. Queries before
// the first frame return the first frame; queries past the final frame return
// the final frame and mark the adapter exhausted. Identical t on identical
// loaded data always returns identical output.
func (a *Adapter) FrameAt(t float64) (telemetry.Snapshot, error) {
	if a.frames == nil {
		return telemetry.Snapshot{}, fmt.Errorf("no playback log loaded")
	}
	// First index with time > t; the frame before it is the nearest past.
	idx := sort.Search(len(a.frames), func(i int) bool {
		return a.frames[i].Time > t
	})
	if idx == len(a.frames) && t > a.frames[len(a.frames)-1].Time {
		a.exhausted.Store(true)
	}
	if idx == 0 {
		return a.frames[0], nil
	}
	return a.frames[idx-1], nil
}

// parseTimestep converts one raw timestep into the common schema. Drone ids
// are sorted so replays of the same log are byte-identical regardless of map
// iteration order.
func (a *Adapter) parseTimestep(ts timestep) telemetry.Snapshot {
	ids := make([]string, 0, len(ts.UAVs))
	for id := range ts.UAVs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	drones := make([]telemetry.DroneState, 0, len(ids))
	for _, id := range ids {
		drones = append(drones, a.parseUAV(id, ts.UAVs[id]))
	}
	return telemetry.Snapshot{Time: ts.Time, Drones: drones}
}

func (a *Adapter) parseUAV(id string, rec uavRecord) telemetry.DroneState {
	var lat, lon, altAGL float64
	if rec.Lat != nil && rec.Lon != nil {
		lat, lon = *rec.Lat, *rec.Lon
		if len(rec.Position) > 2 {
			altAGL = rec.Position[2]
		}
	} else {
		var east, north float64
		if len(rec.Position) > 1 {
			east, north = rec.Position[0], rec.Position[1]
		}
		if len(rec.Position) > 2 {
			altAGL = rec.Position[2]
		}
		lat, lon = geo.ENUToGeodetic(a.originLat, a.originLon, east, north)
	}

	var vx, vy, vz float64
	if len(rec.Velocity) > 1 {
		vx, vy = rec.Velocity[0], rec.Velocity[1]
	}
	if len(rec.Velocity) > 2 {
		vz = rec.Velocity[2]
	}

	heading := 0.0
	if math.Abs(vx) > 0.01 || math.Abs(vy) > 0.01 {
		heading = math.Mod(math.Atan2(vx, vy)*180/math.Pi+360, 360)
	}
	speed := math.Hypot(vx, vy)

	// The exporter records AGL with a flat ground model, so MSL matches until
	// the airspace service is consulted. Altitudes are staggered per drone id
	// for clearer 3D separation; the offset is a pure function of the id.
	altMSL := altAGL
	offset := float64(altStagger(id)) * 3.0
	altAGL += offset
	altMSL += offset

	battery := rec.Battery
	if battery > 1.0 {
		battery /= 100.0
	}

	health := telemetry.HealthOK
	if rec.OperationalState != "" && rec.OperationalState != "active" {
		health = telemetry.HealthWarning
	}

	return telemetry.DroneState{
		ID:            id,
		Lat:           lat,
		Lon:           lon,
		AltMSL:        altMSL,
		AltAGL:        altAGL,
		Heading:       heading,
		Speed:         speed,
		VerticalSpeed: vz,
		Health:        health,
		LinkQuality:   1.0,
		Payload:       &telemetry.Payload{Battery: battery},
	}
}

// altStagger spreads drones across six 3 m altitude slots keyed off the id.
func altStagger(id string) int {
	sum := 0
	for _, c := range id {
		sum += int(c)
	}
	return sum % 6
}
