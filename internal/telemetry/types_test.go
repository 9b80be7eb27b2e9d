package telemetry

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func valid() DroneState {
	return DroneState{
		ID:          "d1",
		Lat:         33.7736,
		Lon:         -84.4022,
		AltMSL:      350,
		AltAGL:      50,
		Heading:     180,
		Speed:       5.5,
		Health:      HealthOK,
		LinkQuality: 1.0,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*DroneState)
		field  string
	}{
		{"valid", func(d *DroneState) {}, ""},
		{"empty id", func(d *DroneState) { d.ID = "" }, "id"},
		{"lat high", func(d *DroneState) { d.Lat = 90.001 }, "lat"},
		{"lat low", func(d *DroneState) { d.Lat = -91 }, "lat"},
		{"lon high", func(d *DroneState) { d.Lon = 180.5 }, "lon"},
		{"heading negative", func(d *DroneState) { d.Heading = -1 }, "heading"},
		{"heading over", func(d *DroneState) { d.Heading = 360.1 }, "heading"},
		{"link quality over", func(d *DroneState) { d.LinkQuality = 1.1 }, "link_quality"},
		{"unknown health", func(d *DroneState) { d.Health = "DEGRADED" }, "health"},
		{"boundary lat", func(d *DroneState) { d.Lat = -90 }, ""},
		{"boundary heading", func(d *DroneState) { d.Heading = 360 }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(&d)
			err := d.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestWireNames(t *testing.T) {
	d := valid()
	v := true
	d.CeilingViolation = &v
	d.Payload = &Payload{Battery: 0.9, GimbalYaw: 12.5}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{`"alt_msl"`, `"alt_agl"`, `"link_quality"`, `"ceiling_violation"`, `"gimbalYaw"`} {
		if !strings.Contains(string(data), name) {
			t.Errorf("missing wire name %s in %s", name, data)
		}
	}

	// The annotation field stays off the wire unless set.
	data, _ = json.Marshal(valid())
	if strings.Contains(string(data), "ceiling_violation") {
		t.Errorf("unset annotation must be omitted: %s", data)
	}
}
