package telemetry

import (
	"os"
	"time"
)

// ArchiveRow is one accepted live update flattened for the archive sinks.
type ArchiveRow struct {
	ClusterID   string    `json:"cluster_id"`   // TAG
	DroneID     string    `json:"drone_id"`     // TAG
	Lat         float64   `json:"lat"`          // FIELD
	Lon         float64   `json:"lon"`          // FIELD
	AltMSL      float64   `json:"alt_msl"`      // FIELD
	AltAGL      float64   `json:"alt_agl"`      // FIELD
	Heading     float64   `json:"heading"`      // FIELD
	Speed       float64   `json:"speed"`        // FIELD
	Health      string    `json:"health"`       // FIELD
	LinkQuality float64   `json:"link_quality"` // FIELD
	Timestamp   time.Time `json:"ts"`           // TIME INDEX
}

// ArchiveTableName holds the table name used when writing to GreptimeDB.
// It defaults to "drone_live_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var ArchiveTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_live_telemetry"
}()

func (ArchiveRow) TableName() string {
	return ArchiveTableName
}

// NewArchiveRow flattens a drone state for archival.
func NewArchiveRow(clusterID string, d DroneState, ts time.Time) ArchiveRow {
	return ArchiveRow{
		ClusterID:   clusterID,
		DroneID:     d.ID,
		Lat:         d.Lat,
		Lon:         d.Lon,
		AltMSL:      d.AltMSL,
		AltAGL:      d.AltAGL,
		Heading:     d.Heading,
		Speed:       d.Speed,
		Health:      d.Health,
		LinkQuality: d.LinkQuality,
		Timestamp:   ts,
	}
}
