package gcapi

import (
	"time"

	"github.com/geoscout/geoscout/pkg/geo"
)

// Geocache is a normalized search result record. Coords may be nil: the
// remote service withholds coordinates of premium-only caches from basic
// members. Distance is only meaningful when HasDistance is set; guessed
// distances are ordering hints, not measurements.
type Geocache struct {
	Geocode            string
	Name               string
	Type               CacheType
	Size               CacheSize
	Difficulty         float64
	Terrain            float64
	Coords             *geo.Geopoint
	UserModifiedCoords bool
	PremiumOnly        bool
	Found              TriState
	FavoritePoints     int
	Disabled           bool
	Archived           bool
	OwnerDisplayName   string
	PlacedDate         time.Time
	LastFoundDate      time.Time
	TrackableCount     int
	Location           string
	Attributes         []string
	Rating             float64

	Distance    float64
	HasDistance bool
}

// ApplyFoundSignal merges a found / did-not-find pair from one source into
// the record. A positive found always sticks; a DNF must never override a
// found asserted earlier from another source, since some sources lag behind.
func (c *Geocache) ApplyFoundSignal(found, didNotFind bool) {
	if found {
		c.Found = TriStateYes
	} else if didNotFind && c.Found != TriStateYes {
		c.Found = TriStateNo
	}
}

// SetDistance records an inferred or computed distance in kilometers.
func (c *Geocache) SetDistance(km float64) {
	c.Distance = km
	c.HasDistance = true
}

// SearchResult is what SearchCaches hands back to callers.
type SearchResult struct {
	// LeftToFetch is serverTotal - take - skip as reported; it may go
	// negative when the server total shrinks between pages.
	LeftToFetch int
	Caches      []*Geocache
}

// TrackableInventoryEntry is one trackable currently held by the user.
type TrackableInventoryEntry struct {
	ReferenceCode  string `json:"referenceCode"` // public code, "TB..."
	Name           string `json:"name"`
	IconURL        string `json:"iconUrl"`
	TrackingNumber string `json:"trackingNumber"` // the secret one
}

// TrackableLog describes one action on a trackable, either standalone or
// attached to a cache log.
type TrackableLog struct {
	Geocode      string // public trackable code, "TB..."
	TrackingCode string // secret tracking code, trackable logs only
	Action       TrackableLogType
}

// Image is a log image attachment. Title and Description are optional; when
// both are blank the metadata update step is skipped.
type Image struct {
	Data        []byte
	Title       string
	Description string
}

// DTCombi is one difficulty/terrain combination.
type DTCombi struct {
	Difficulty float64
	Terrain    float64
}
