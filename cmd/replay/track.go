package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/geospatial"
)

// LoadTrack reads a JSON array of {"lat","lon"} points.
func LoadTrack(r io.Reader) ([]domain.GeoPoint, error) {
	var track []domain.GeoPoint
	if err := json.NewDecoder(r).Decode(&track); err != nil {
		return nil, fmt.Errorf("decode track: %w", err)
	}
	if len(track) == 0 {
		return nil, fmt.Errorf("track is empty")
	}
	for i, p := range track {
		if !domain.ValidPosition(p.Lat, p.Lon) {
			return nil, fmt.Errorf("track point %d is not a valid coordinate", i)
		}
	}
	return track, nil
}

// Jitter moves p to a random point inside the box of radiusMeters around
// it, imitating GPS noise. A non-positive radius returns p unchanged.
func Jitter(p domain.GeoPoint, radiusMeters float64, rnd *rand.Rand) domain.GeoPoint {
	if radiusMeters <= 0 {
		return p
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(p.Lat, p.Lon, radiusMeters)
	return domain.GeoPoint{
		Lat: minLat + rnd.Float64()*(maxLat-minLat),
		Lon: minLon + rnd.Float64()*(maxLon-minLon),
	}
}
