package gcapi

import "github.com/geoscout/geoscout/pkg/geo"

// guessMissingDistances fills in distances for records without coordinates.
// Basic members don't get coordinates for premium caches, but when the
// server sorted by distance the position inside the page still pins each
// record between two known distances.
//
// Walk order is ascending-distance semantics, so a descending sort gets the
// page reversed first. Coordinate-less records are buffered until the next
// record with real coordinates appears, then each of them gets the
// smart-rounded midpoint of the surrounding two known distances. Records
// trailing the last known distance get lastKnown+1 (or 1 when nothing was
// ever known). A page without any coordinates gets 1 everywhere.
//
// The results are ordering hints only, never physical measurements.
func guessMissingDistances(caches []*Geocache, s *Search) {
	if len(caches) == 0 {
		return
	}
	if s.Origin() == nil || s.Sort() != SortDistance {
		return
	}

	loop := caches
	if !s.SortAsc() {
		loop = make([]*Geocache, len(caches))
		for i, c := range caches {
			loop[len(caches)-1-i] = c
		}
	}

	origin := *s.Origin()
	lastDistance := 0.0
	var pending []*Geocache

	for _, c := range loop {
		if c.Coords == nil {
			pending = append(pending, c)
			continue
		}
		newDistance := origin.DistanceTo(*c.Coords)
		for _, p := range pending {
			p.SetDistance(geo.SmartRoundedAverageDistance(newDistance, lastDistance))
		}
		pending = pending[:0]
		lastDistance = newDistance
	}

	for _, p := range pending {
		if lastDistance == 0 {
			p.SetDistance(1)
		} else {
			p.SetDistance(lastDistance + 1)
		}
	}
}
