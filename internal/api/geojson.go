package api

import (
	"strings"

	"github.com/chariot-app/globemap/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(crises []models.Crisis) FeatureCollection {
	features := make([]Feature, 0, len(crises))

	for _, cr := range crises {
		coords := cr.Coordinates()
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{coords.Longitude, coords.Latitude},
			},
			Properties: map[string]any{
				"id":           cr.ID,
				"category":     strings.ToLower(string(cr.Category)),
				"title":        cr.Title,
				"description":  cr.Description,
				"severity":     cr.Severity,
				"country_code": cr.CountryCode,
				"source":       cr.Source,
				"last_updated": cr.LastUpdated,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
