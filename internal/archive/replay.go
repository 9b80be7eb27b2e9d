package archive

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"dronewatch/internal/telemetry"
)

// Target accepts replayed telemetry; the live registry satisfies it.
type Target interface {
	UpdateTelemetry(telemetry.DroneState) error
}

// ReplayLog replays archived rows from r into target. A speed >0 preserves
// the recorded pacing scaled by the factor; speed <= 0 replays without delay.
func ReplayLog(r io.Reader, target Target, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row telemetry.ArchiveRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := target.UpdateTelemetry(rowToState(row)); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its rows.
func ReplayLogFile(path string, target Target, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, target, speed)
}

func rowToState(r telemetry.ArchiveRow) telemetry.DroneState {
	return telemetry.DroneState{
		ID:          r.DroneID,
		Lat:         r.Lat,
		Lon:         r.Lon,
		AltMSL:      r.AltMSL,
		AltAGL:      r.AltAGL,
		Heading:     r.Heading,
		Speed:       r.Speed,
		Health:      r.Health,
		LinkQuality: r.LinkQuality,
	}
}
