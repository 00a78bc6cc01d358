package storage

import "time"

// Record is one normalized geocache row, keyed by geocode.
type Record struct {
	Geocode        string
	Name           string
	Type           string
	Size           string
	Difficulty     float64
	Terrain        float64
	Latitude       float64
	Longitude      float64
	HasCoords      bool
	Found          string // "yes" | "no" | "" (unknown)
	FavoritePoints int
	Disabled       bool
	Archived       bool
	Owner          string
	PremiumOnly    bool
}

// Change captures a single change event for auditing or printing.
type Change struct {
	OccurredAt time.Time
	Geocode    string
	Name       string
	ChangeType string // added | updated
}
