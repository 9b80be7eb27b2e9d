// Package geo provides the coordinate math used by the playback adapter and
// the airspace service: great-circle distance, initial bearing, and a local
// tangent-plane ENU conversion.
package geo

import "math"

const (
	// earthRadiusM is the mean Earth radius used for great-circle math.
	earthRadiusM = 6371000.0

	// metersPerDegLat approximates one degree of latitude. Longitude scales
	// with cos(lat). Good to ~0.1 m at metro scale; not valid beyond ~50 km
	// from the origin.
	metersPerDegLat = 111320.0
)

// Haversine returns the great-circle distance in meters between two WGS84
// points. Identical points yield 0.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Bearing returns the initial bearing in degrees [0, 360) from point 1 to
// point 2, 0 = North, clockwise.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	x := math.Sin(dLon) * math.Cos(rLat2)
	y := math.Cos(rLat1)*math.Sin(rLat2) - math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLon)

	deg := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// ENUToGeodetic converts a local east/north offset in meters from the given
// origin into latitude and longitude.
func ENUToGeodetic(originLat, originLon, east, north float64) (lat, lon float64) {
	lat = originLat + north/metersPerDegLat
	lon = originLon + east/(metersPerDegLat*math.Cos(originLat*math.Pi/180))
	return lat, lon
}

// GeodeticToENU converts a latitude/longitude into east/north meters relative
// to the given origin. Inverse of ENUToGeodetic.
func GeodeticToENU(originLat, originLon, lat, lon float64) (east, north float64) {
	north = (lat - originLat) * metersPerDegLat
	east = (lon - originLon) * metersPerDegLat * math.Cos(originLat*math.Pi/180)
	return east, north
}
