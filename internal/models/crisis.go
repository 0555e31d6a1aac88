package models

import "time"

type Category string

const (
	CategoryDisaster Category = "Disaster"
	CategoryConflict Category = "Conflict"
	CategoryClimate  Category = "Climate"
	CategoryHealth   Category = "Health"
	CategoryHunger   Category = "Hunger"
)

type Crisis struct {
	ID          int64
	Title       string
	Category    Category
	Severity    int // source-defined, 0-10; not comparable across sources
	Latitude    float64
	Longitude   float64
	CountryCode string // ISO-3166 alpha-2, empty when unknown
	Description string
	Source      string // adapter name, e.g. "usgs"
	SourceID    string // natural key, "<source>_<upstream id>"; empty means never deduped
	SourceAPI   string // legacy column, mirrors Source
	LastUpdated time.Time
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c *Crisis) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}

// HasCoordinates reports whether the record carries a resolvable location.
// (0, 0) is open ocean and only ever appears as the unresolved zero value.
func (c *Crisis) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
