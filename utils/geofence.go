package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ValidateCoordinate checks latitude/longitude ranges.
func ValidateCoordinate(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.6f is out of valid range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %.6f is out of valid range [-180, 180]", lng)
	}
	return nil
}

// ParseOptionalCoordinate parses a pair of form values. Both empty means no
// location; exactly one empty is an error.
func ParseOptionalCoordinate(latStr, lngStr string) (*float64, *float64, error) {
	latStr, lngStr = strings.TrimSpace(latStr), strings.TrimSpace(lngStr)
	if latStr == "" && lngStr == "" {
		return nil, nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, nil, fmt.Errorf("latitude and longitude must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid longitude %q", lngStr)
	}
	if err := ValidateCoordinate(lat, lng); err != nil {
		return nil, nil, err
	}
	return &lat, &lng, nil
}

// ParseBBox parses "minLng,minLat,maxLng,maxLat".
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox must be minLng,minLat,maxLng,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox value %q", p)
		}
		v[i] = f
	}
	if err := ValidateCoordinate(v[1], v[0]); err != nil {
		return orb.Bound{}, err
	}
	if err := ValidateCoordinate(v[3], v[2]); err != nil {
		return orb.Bound{}, err
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("bbox min corner must be south-west of max corner")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
