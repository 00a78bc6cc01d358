package gcapi

import (
	"strconv"
	"time"

	"github.com/geoscout/geoscout/pkg/geo"
)

// Raw shapes of /web/search/v2 responses. Unknown fields are ignored.

type mapSearchResultSet struct {
	Total   int               `json:"total"`
	Results []mapSearchResult `json:"results"`
}

type mapSearchResult struct {
	ID                       int                `json:"id"`
	Name                     string             `json:"name"`
	Code                     string             `json:"code"`
	PremiumOnly              bool               `json:"premiumOnly"`
	FavoritePoints           int                `json:"favoritePoints"`
	GeocacheType             int                `json:"geocacheType"`
	ContainerType            int                `json:"containerType"`
	Difficulty               float64            `json:"difficulty"`
	Terrain                  float64            `json:"terrain"`
	UserFound                bool               `json:"userFound"`
	UserDidNotFind           bool               `json:"userDidNotFind"`
	CacheStatus              int                `json:"cacheStatus"`
	PostedCoordinates        *postedCoordinates `json:"postedCoordinates"`
	UserCorrectedCoordinates *postedCoordinates `json:"userCorrectedCoordinates"`
	PlacedDate               string             `json:"placedDate"`
	Owner                    *cacheOwner        `json:"owner"`
	LastFoundDate            string             `json:"lastFoundDate"`
	TrackableCount           int                `json:"trackableCount"`
	Region                   string             `json:"region"`
	Country                  string             `json:"country"`
	Attributes               []rawAttribute     `json:"attributes"`
}

type postedCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *postedCoordinates) toCoords() *geo.Geopoint {
	return &geo.Geopoint{Latitude: p.Latitude, Longitude: p.Longitude}
}

type cacheOwner struct {
	Code     string `json:"code"`
	Username string `json:"username"`
}

type rawAttribute struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	IsApplicable bool   `json:"isApplicable"`
}

const resultTimestampLayout = "2006-01-02T15:04:05"

func parseResultTimestamp(s string) time.Time {
	t, err := time.Parse(resultTimestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

const (
	cacheStatusDisabled = 1
	cacheStatusArchived = 2
)

// mapResultSet converts one raw result page into normalized records, in the
// server-yielded order. The order encodes the requested sort and is never
// changed here.
func mapResultSet(set *mapSearchResultSet, s *Search) (leftToFetch int, caches []*Geocache) {
	leftToFetch = set.Total - s.take - s.skip

	for i := range set.Results {
		r := &set.Results[i]

		c := &Geocache{
			Geocode:        r.Code,
			Name:           r.Name,
			Type:           CacheTypeByWireID(strconv.Itoa(r.GeocacheType)),
			Size:           CacheSizeByGcID(strconv.Itoa(r.ContainerType)),
			Difficulty:     r.Difficulty,
			Terrain:        r.Terrain,
			PremiumOnly:    r.PremiumOnly,
			FavoritePoints: r.FavoritePoints,
			Disabled:       r.CacheStatus == cacheStatusDisabled,
			Archived:       r.CacheStatus == cacheStatusArchived,
			PlacedDate:     parseResultTimestamp(r.PlacedDate),
			LastFoundDate:  parseResultTimestamp(r.LastFoundDate),
			TrackableCount: r.TrackableCount,
			Location:       r.Region + ", " + r.Country,
		}

		switch {
		case r.UserCorrectedCoordinates != nil:
			c.Coords = r.UserCorrectedCoordinates.toCoords()
			c.UserModifiedCoords = true
		case r.PostedCoordinates != nil:
			c.Coords = r.PostedCoordinates.toCoords()
		default:
			// Premium cache seen by a basic member, coords stay nil.
		}

		c.ApplyFoundSignal(r.UserFound, r.UserDidNotFind)

		if r.Owner != nil {
			c.OwnerDisplayName = r.Owner.Username
		}

		for _, a := range r.Attributes {
			if v := AttributeValue(a.ID, a.IsApplicable); v != "" {
				c.Attributes = append(c.Attributes, v)
			}
		}

		caches = append(caches, c)
	}

	return leftToFetch, caches
}
