// Common telemetry schema shared by the playback and live adapters.
package telemetry

import "fmt"

// Drone health states. OFFLINE is assigned by the registry when a session
// goes stale; clients may echo it back but never trigger the transition.
const (
	HealthOK      = "OK"
	HealthWarning = "WARNING"
	HealthError   = "ERROR"
	HealthOffline = "OFFLINE"
)

// Payload carries camera and gimbal data. The core passes it through
// unvalidated beyond its shape.
type Payload struct {
	CameraStreams  []string `json:"cameraStreams,omitempty"`
	GimbalYaw      float64  `json:"gimbalYaw,omitempty"`
	GimbalPitch    float64  `json:"gimbalPitch,omitempty"`
	Battery        float64  `json:"battery,omitempty"`
	ThermalEnabled bool     `json:"thermalEnabled,omitempty"`
}

// DroneState is one drone's telemetry at an instant. Field names on the wire
// are fixed for compatibility with the visualization client.
type DroneState struct {
	ID            string   `json:"id"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	AltMSL        float64  `json:"alt_msl"`
	AltAGL        float64  `json:"alt_agl"`
	Heading       float64  `json:"heading"`
	Speed         float64  `json:"speed"`
	VerticalSpeed float64  `json:"vertical_speed"`
	Health        string   `json:"health"`
	LinkQuality   float64  `json:"link_quality"`
	Payload       *Payload `json:"payload,omitempty"`

	// CeilingViolation is filled by the airspace service on demand and is
	// never part of the stored state.
	CeilingViolation *bool `json:"ceiling_violation,omitempty"`
}

// Snapshot is a timestamped set of all drones' states. Drones keep their
// arrival order so identical queries yield identical output.
type Snapshot struct {
	Time   float64      `json:"time"`
	Drones []DroneState `json:"drones"`
}

// ValidationError reports a missing or out-of-range telemetry field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid telemetry field %q: %s", e.Field, e.Reason)
}

// Validate checks the documented numeric ranges. Presence of required fields
// is enforced at the decoding layer, where absent and zero are still
// distinguishable.
func (d *DroneState) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if d.Lat < -90 || d.Lat > 90 {
		return &ValidationError{Field: "lat", Reason: fmt.Sprintf("%.6f outside [-90, 90]", d.Lat)}
	}
	if d.Lon < -180 || d.Lon > 180 {
		return &ValidationError{Field: "lon", Reason: fmt.Sprintf("%.6f outside [-180, 180]", d.Lon)}
	}
	if d.Heading < 0 || d.Heading > 360 {
		return &ValidationError{Field: "heading", Reason: fmt.Sprintf("%.2f outside [0, 360]", d.Heading)}
	}
	if d.LinkQuality < 0 || d.LinkQuality > 1 {
		return &ValidationError{Field: "link_quality", Reason: fmt.Sprintf("%.3f outside [0, 1]", d.LinkQuality)}
	}
	if d.Health != "" && !validHealth(d.Health) {
		return &ValidationError{Field: "health", Reason: fmt.Sprintf("unknown state %q", d.Health)}
	}
	return nil
}

func validHealth(h string) bool {
	switch h {
	case HealthOK, HealthWarning, HealthError, HealthOffline:
		return true
	}
	return false
}
