package gcapi

import (
	"testing"

	"github.com/geoscout/geoscout/pkg/geo"
)

// cacheAtKm builds a record whose real distance from the zero origin is
// (roughly) the given number of kilometers, straight north.
func cacheAtKm(km float64) *Geocache {
	return &Geocache{
		Geocode: "GCWITHCOORDS",
		Coords:  &geo.Geopoint{Latitude: km / 111.19492664455873, Longitude: 0},
	}
}

func cacheWithoutCoords() *Geocache {
	return &Geocache{Geocode: "GCNOCOORDS"}
}

func distanceSearch(asc bool) *Search {
	return NewSearch().
		SetOrigin(&geo.Geopoint{}).
		SetSort(SortDistance, asc)
}

func TestGuessMissingDistancesMidpoint(t *testing.T) {
	near := cacheAtKm(10)
	missing := cacheWithoutCoords()
	far := cacheAtKm(20)
	caches := []*Geocache{near, missing, far}

	guessMissingDistances(caches, distanceSearch(true))

	if !missing.HasDistance {
		t.Fatal("no distance was inferred")
	}
	origin := geo.Geopoint{}
	want := geo.SmartRoundedAverageDistance(origin.DistanceTo(*far.Coords), origin.DistanceTo(*near.Coords))
	if missing.Distance != want {
		t.Fatalf("expected midpoint %f, got %f", want, missing.Distance)
	}
	if missing.Distance < 14.9 || missing.Distance > 15.1 {
		t.Fatalf("expected ~15 km between 10 and 20, got %f", missing.Distance)
	}
}

func TestGuessMissingDistancesNoCoordsAtAll(t *testing.T) {
	caches := []*Geocache{cacheWithoutCoords(), cacheWithoutCoords(), cacheWithoutCoords()}

	guessMissingDistances(caches, distanceSearch(true))

	for i, c := range caches {
		if !c.HasDistance || c.Distance != 1 {
			t.Fatalf("record %d: expected distance 1, got %v (known=%v)", i, c.Distance, c.HasDistance)
		}
	}
}

func TestGuessMissingDistancesTrailingRecords(t *testing.T) {
	known := cacheAtKm(10)
	trailing1 := cacheWithoutCoords()
	trailing2 := cacheWithoutCoords()
	caches := []*Geocache{known, trailing1, trailing2}

	guessMissingDistances(caches, distanceSearch(true))

	origin := geo.Geopoint{}
	want := origin.DistanceTo(*known.Coords) + 1
	for _, c := range []*Geocache{trailing1, trailing2} {
		if !c.HasDistance || c.Distance != want {
			t.Fatalf("expected trailing distance %f, got %v", want, c.Distance)
		}
	}
}

func TestGuessMissingDistancesLeadingRecordsOnlyKnownLater(t *testing.T) {
	// leading records without coords get the midpoint of 0 and the first
	// known distance
	missing := cacheWithoutCoords()
	known := cacheAtKm(10)
	caches := []*Geocache{missing, known}

	guessMissingDistances(caches, distanceSearch(true))

	origin := geo.Geopoint{}
	want := geo.SmartRoundedAverageDistance(origin.DistanceTo(*known.Coords), 0)
	if !missing.HasDistance || missing.Distance != want {
		t.Fatalf("expected %f, got %v", want, missing.Distance)
	}
}

func TestGuessMissingDistancesDescendingWalksReversed(t *testing.T) {
	// server order is descending: 20, missing, 10. The walk must reverse so
	// the missing record still ends up between 10 and 20.
	far := cacheAtKm(20)
	missing := cacheWithoutCoords()
	near := cacheAtKm(10)
	caches := []*Geocache{far, missing, near}

	guessMissingDistances(caches, distanceSearch(false))

	if !missing.HasDistance || missing.Distance < 14.9 || missing.Distance > 15.1 {
		t.Fatalf("expected ~15 km, got %v", missing.Distance)
	}
	// server order itself must stay untouched
	if caches[0] != far || caches[2] != near {
		t.Fatal("inference must never reorder the result records")
	}
}

func TestGuessMissingDistancesInactiveWithoutOrigin(t *testing.T) {
	missing := cacheWithoutCoords()
	caches := []*Geocache{cacheAtKm(10), missing}

	s := NewSearch().SetSort(SortDistance, true) // no origin
	guessMissingDistances(caches, s)
	if missing.HasDistance {
		t.Fatal("inference must be a no-op without an origin")
	}

	s = NewSearch().SetOrigin(&geo.Geopoint{}).SetSort(SortName, true)
	guessMissingDistances(caches, s)
	if missing.HasDistance {
		t.Fatal("inference must be a no-op for non-distance sorts")
	}
}
