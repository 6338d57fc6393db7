package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bounding box used to sanity-check coordinates captured at booking time.
const (
	IndiaLatMin = 6.0
	IndiaLatMax = 38.5
	IndiaLngMin = 68.0
	IndiaLngMax = 98.0
)

// HaversineDistance calculates the distance between two points on Earth using the Haversine formula
// Returns distance in kilometers
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// ParseDecimal parses a plain decimal number such as "12.9716" or "-3".
// Exponents, hex, infinities and NaN are rejected.
func ParseDecimal(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "eExXpP_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseCoordinates parses a latitude/longitude pair and checks the ranges.
func ParseCoordinates(latRaw, lngRaw string) (float64, float64, bool) {
	lat, ok := ParseDecimal(latRaw)
	if !ok {
		return 0, 0, false
	}
	lng, ok := ParseDecimal(lngRaw)
	if !ok {
		return 0, 0, false
	}
	if !IsLocationValid(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// IsLocationValid checks if the provided coordinates are valid
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// InIndia reports whether the point lies inside the national bounding box.
func InIndia(lat, lng float64) bool {
	return lat >= IndiaLatMin && lat <= IndiaLatMax && lng >= IndiaLngMin && lng <= IndiaLngMax
}

// RoundCoordinate keeps the seven decimal places the bookings table stores.
func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}

// MapURL builds a maps link for a point, or "" when either value is missing.
func MapURL(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return fmt.Sprintf("https://maps.google.com/?q=%s,%s", formatCoord(*lat), formatCoord(*lng))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
