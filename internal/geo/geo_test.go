package geo

import (
	"math"
	"testing"
)

func TestHaversineIdenticalPoints(t *testing.T) {
	if d := Haversine(33.7736, -84.4022, 33.7736, -84.4022); d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Mercedes-Benz Stadium to Georgia Tech, roughly 2 km.
	d := Haversine(33.755489, -84.401993, 33.7736, -84.4022)
	if d < 1900 || d > 2200 {
		t.Errorf("expected ~2 km, got %.1f m", d)
	}
}

func TestBearingCardinalDirections(t *testing.T) {
	cases := []struct {
		name           string
		lat2, lon2     float64
		want, tolerant float64
	}{
		{"north", 34.0, -84.4022, 0, 0.5},
		{"east", 33.7736, -84.0, 90, 1.0},
		{"south", 33.0, -84.4022, 180, 0.5},
		{"west", 33.7736, -85.0, 270, 1.0},
	}
	for _, c := range cases {
		got := Bearing(33.7736, -84.4022, c.lat2, c.lon2)
		diff := math.Abs(got - c.want)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > c.tolerant {
			t.Errorf("%s: expected bearing ~%.0f, got %.2f", c.name, c.want, got)
		}
	}
}

func TestBearingRange(t *testing.T) {
	b := Bearing(10, 10, 5, 5)
	if b < 0 || b >= 360 {
		t.Errorf("bearing %f outside [0,360)", b)
	}
}

func TestENURoundTrip(t *testing.T) {
	const originLat, originLon = 33.755489, -84.401993
	lat, lon := ENUToGeodetic(originLat, originLon, 250, -120)
	east, north := GeodeticToENU(originLat, originLon, lat, lon)
	if math.Abs(east-250) > 1e-6 || math.Abs(north+120) > 1e-6 {
		t.Errorf("round trip drift: east=%.9f north=%.9f", east, north)
	}
}

func TestENUOffsetsMoveExpectedDirection(t *testing.T) {
	lat, lon := ENUToGeodetic(33.7736, -84.4022, 100, 0)
	if lat != 33.7736 {
		t.Errorf("pure east offset changed latitude: %f", lat)
	}
	if lon <= -84.4022 {
		t.Errorf("east offset should increase longitude, got %f", lon)
	}
	lat, _ = ENUToGeodetic(33.7736, -84.4022, 0, 100)
	if lat <= 33.7736 {
		t.Errorf("north offset should increase latitude, got %f", lat)
	}
}
