package checkin

import "math"

// earthRadius is the WGS84 equatorial radius in metres.
const earthRadius = 6378137.0

// DefaultRadius is the geofence radius in metres.
const DefaultRadius = 1000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Distance returns the great-circle distance between a and b in metres.
func Distance(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Geofence is a circle around the office.
type Geofence struct {
	Center Point
	Radius float64
}

// Contains reports whether p is within the fence, boundary included.
func (g Geofence) Contains(p Point) bool {
	r := g.Radius
	if r <= 0 {
		r = DefaultRadius
	}
	return Distance(g.Center, p) <= r
}
