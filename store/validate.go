package store

import (
	"math"
	"strings"

	"photogallery/models"
)

func validateInput(in models.PhotoInput) error {
	if strings.TrimSpace(in.FilePath) == "" {
		return invalid("filePath", "is required")
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		return invalid("timestamp", "is required")
	}
	return validatePair(in.Latitude, in.Longitude)
}

func validateUpdate(upd models.PhotoUpdate) error {
	hasCoords := upd.Latitude != nil || upd.Longitude != nil
	if upd.ClearLocation && hasCoords {
		return invalid("location", "cannot be cleared and set at once")
	}
	if upd.Name == nil && !hasCoords && !upd.ClearLocation {
		return invalid("update", "has no fields")
	}
	if hasCoords {
		return validatePair(upd.Latitude, upd.Longitude)
	}
	return nil
}

// validatePair enforces that coordinates come as a complete, in-range pair.
func validatePair(lat, lon *float64) error {
	if lat == nil && lon == nil {
		return nil
	}
	if lat == nil {
		return invalid("latitude", "is required when longitude is set")
	}
	if lon == nil {
		return invalid("longitude", "is required when latitude is set")
	}
	if math.IsNaN(*lat) || *lat < -90 || *lat > 90 {
		return invalid("latitude", "must be within [-90, 90]")
	}
	if math.IsNaN(*lon) || *lon < -180 || *lon > 180 {
		return invalid("longitude", "must be within [-180, 180]")
	}
	return nil
}
