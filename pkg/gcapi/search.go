package gcapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/geo"
	"github.com/geoscout/geoscout/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
)

var (
	// WebsiteURL is the authenticated website root; APIProxyURL fronts the
	// JSON search/trackable endpoints. Overridable for tests.
	WebsiteURL  = "https://www.geocaching.com"
	APIProxyURL = "https://www.geocaching.com/api/proxy"
)

// DefaultLocationSource supplies the distance origin for distance-sorted
// queries that set neither an origin nor a box. The embedding application
// points this at its location provider.
var DefaultLocationSource = func() geo.Geopoint { return geo.Geopoint{} }

const (
	paramDateLayout = "2006-01-02"

	// appIdentifier is sent with every search, a fixed agreement with the
	// service operator. Not caller-configurable.
	appIdentifier = "geoscout"
)

// Search accumulates filters for one query against /web/search/v2 and is
// discarded after execution. Setters chain; none of them hit the network.
type Search struct {
	box    *geo.Viewport
	origin *geo.Geopoint

	statusOwn            TriState
	statusFound          TriState
	statusMembership     TriState
	statusEnabled        TriState
	statusCorrectedCoord TriState

	cacheTypes      map[CacheType]bool
	cacheSizes      map[CacheSize]bool
	cacheAttributes map[CacheAttribute]bool

	hiddenBy          string
	notFoundBy        []string
	foundBy           []string
	difficulty        string
	terrain           string
	dtCombis          string
	placedFrom        string
	placedTo          string
	keywords          string
	minFavoritePoints int

	deliverLastFoundDateOfFoundBy bool

	sort    SortType
	sortAsc bool

	skip int
	take int
}

// NewSearch returns a search with the service defaults: distance sort
// ascending and a full first page.
func NewSearch() *Search {
	return &Search{
		cacheTypes:                    make(map[CacheType]bool),
		cacheSizes:                    make(map[CacheSize]bool),
		cacheAttributes:               make(map[CacheAttribute]bool),
		deliverLastFoundDateOfFoundBy: true,
		sort:                          SortDistance,
		sortAsc:                       true,
		take:                          500,
	}
}

func (s *Search) SetPage(take, skip int) *Search {
	s.take = take
	s.skip = skip
	return s
}

func (s *Search) SetSort(sort SortType, asc bool) *Search {
	s.sort = sort
	s.sortAsc = asc
	return s
}

func (s *Search) Take() int      { return s.take }
func (s *Search) Skip() int      { return s.skip }
func (s *Search) Sort() SortType { return s.sort }
func (s *Search) SortAsc() bool  { return s.sortAsc }

func (s *Search) Origin() *geo.Geopoint { return s.origin }

// AddCacheTypes filters for the given cache types.
func (s *Search) AddCacheTypes(types ...CacheType) *Search {
	for _, t := range types {
		s.cacheTypes[t] = true
	}
	return s
}

// AddCacheSizes filters for the given container sizes.
func (s *Search) AddCacheSizes(sizes ...CacheSize) *Search {
	for _, cs := range sizes {
		s.cacheSizes[cs] = true
	}
	return s
}

// AddCacheAttributes filters for the given attributes. Only positive
// attributes can be filtered, excludes are not supported remotely.
func (s *Search) AddCacheAttributes(attrs ...CacheAttribute) *Search {
	for _, a := range attrs {
		s.cacheAttributes[a] = true
	}
	return s
}

// SetStatusOwn: yes shows only own caches, no hides them. Premium-only.
func (s *Search) SetStatusOwn(v TriState) *Search {
	s.statusOwn = v
	return s
}

// SetStatusFound: yes shows only found caches, no hides them. Premium-only.
func (s *Search) SetStatusFound(v TriState) *Search {
	s.statusFound = v
	return s
}

// SetStatusMembership: yes shows only basic caches, no only premium ones.
func (s *Search) SetStatusMembership(v TriState) *Search {
	s.statusMembership = v
	return s
}

// SetStatusEnabled: yes shows only enabled caches, no only disabled ones.
func (s *Search) SetStatusEnabled(v TriState) *Search {
	s.statusEnabled = v
	return s
}

// SetStatusCorrectedCoordinates: yes shows only caches with original
// coordinates, no only ones with corrected coordinates.
func (s *Search) SetStatusCorrectedCoordinates(v TriState) *Search {
	s.statusCorrectedCoord = v
	return s
}

// SetHiddenBy matches the exact owner name, including case.
func (s *Search) SetHiddenBy(owner string) *Search {
	s.hiddenBy = owner
	return s
}

// AddNotFoundBy matches an exact user name, case-insensitively.
func (s *Search) AddNotFoundBy(user string) *Search {
	s.notFoundBy = append(s.notFoundBy, user)
	return s
}

// AddFoundBy matches an exact user name, case-insensitively.
func (s *Search) AddFoundBy(user string) *Search {
	s.foundBy = append(s.foundBy, user)
	return s
}

// SetMinFavoritePoints filters only when points > 0.
func (s *Search) SetMinFavoritePoints(points int) *Search {
	s.minFavoritePoints = points
	return s
}

// SetDifficulty sets the difficulty range. Pass math.NaN() for an open
// bound; see rangeString for the clamping rules.
func (s *Search) SetDifficulty(from, to float64) *Search {
	s.difficulty = rangeString(from, to)
	return s
}

// SetTerrain sets the terrain range, same rules as SetDifficulty.
func (s *Search) SetTerrain(from, to float64) *Search {
	s.terrain = rangeString(from, to)
	return s
}

// SetDifficultyTerrainCombis filters for exact D/T combinations, e.g. when
// hunting the remaining cells of the 81 matrix.
func (s *Search) SetDifficultyTerrainCombis(combis []DTCombi) *Search {
	parts := make([]string, 0, len(combis))
	for _, c := range combis {
		parts = append(parts, formatHalfStep(c.Difficulty)+"-"+formatHalfStep(c.Terrain))
	}
	s.dtCombis = strings.Join(parts, ",")
	return s
}

// SetPlacementDate restricts the placement date at day granularity; nil
// bounds are open. The remote "before"/"after" comparisons are exclusive, so
// open-ended bounds are padded outward by one day to keep the named date
// inside the result.
func (s *Search) SetPlacementDate(from, to *time.Time) *Search {
	switch {
	case from == nil && to == nil:
		s.placedFrom, s.placedTo = "", ""
	case from == nil:
		s.placedFrom = ""
		s.placedTo = to.AddDate(0, 0, 1).Format(paramDateLayout)
	case to == nil:
		s.placedFrom = from.AddDate(0, 0, -1).Format(paramDateLayout)
		s.placedTo = ""
	default:
		f, t := *from, *to
		if t.Before(f) {
			f, t = t, f
		}
		s.placedFrom = f.Format(paramDateLayout)
		s.placedTo = t.Format(paramDateLayout)
	}
	return s
}

// SetKeywords matches whole words in the cache name, in order,
// case-insensitively.
func (s *Search) SetKeywords(keywords string) *Search {
	s.keywords = keywords
	return s
}

// SetBox restricts the search area. The box center becomes the origin unless
// an explicit origin is set.
func (s *Search) SetBox(box *geo.Viewport) *Search {
	s.box = box
	return s
}

// SetOrigin sets the reference point for distance sorting. It does not
// restrict the result.
func (s *Search) SetOrigin(origin *geo.Geopoint) *Search {
	s.origin = origin
	return s
}

// SetDeliverLastFoundDateOfFoundBy: when enabled and exactly one foundBy
// user is set, the lastFound field carries that user's last found date
// instead of the cache's.
func (s *Search) SetDeliverLastFoundDateOfFoundBy(v bool) *Search {
	s.deliverLastFoundDateOfFoundBy = v
	return s
}

// stripAllWildcard drops the CacheTypeAll marker; an empty set already
// means "all types" on the wire.
func (s *Search) stripAllWildcard() {
	delete(s.cacheTypes, CacheTypeAll)
}

// rangeString renders a difficulty/terrain range. Bounds are clamped to
// [1,5] and rounded to the nearest 0.5; NaN bounds default to the domain
// extremes; inverted bounds are swapped.
func rangeString(from, to float64) string {
	if math.IsNaN(from) && math.IsNaN(to) {
		return ""
	}
	f, t := 1.0, 5.0
	if !math.IsNaN(from) {
		f = math.Round(math.Max(1, math.Min(5, from))*2) / 2
	}
	if !math.IsNaN(to) {
		t = math.Round(math.Max(1, math.Min(5, to))*2) / 2
	}
	if f > t {
		f, t = t, f
	}
	return formatHalfStep(f) + "-" + formatHalfStep(t)
}

func formatHalfStep(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatCoords(p geo.Geopoint) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

// buildParams is a pure function of the builder state. The box-derived
// origin is written first so that an explicitly set origin overrides it.
func (s *Search) buildParams() url.Values {
	params := url.Values{}

	if s.box != nil {
		params.Set("box", fmt.Sprintf("%v,%v,%v,%v",
			s.box.LatMax, s.box.LonMin, s.box.LatMin, s.box.LonMax))
		params.Set("origin", formatCoords(s.box.Center()))
	}

	if s.origin != nil {
		params.Set("origin", formatCoords(*s.origin))
	}

	if len(s.cacheTypes) > 0 {
		ids := make([]string, 0, len(s.cacheTypes))
		for t := range s.cacheTypes {
			if id, ok := wptTypeIDs[t]; ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		params.Set("ct", strings.Join(ids, ","))
	}

	if len(s.cacheSizes) > 0 {
		var ids []string
		for cs := range s.cacheSizes {
			ids = append(ids, cacheSizeGcIDs[cs]...)
		}
		sort.Strings(ids)
		params.Set("cs", strings.Join(ids, ","))
	}

	if len(s.cacheAttributes) > 0 {
		ids := make([]string, 0, len(s.cacheAttributes))
		for a := range s.cacheAttributes {
			ids = append(ids, a.WireID())
		}
		sort.Strings(ids)
		params.Set("att", strings.Join(ids, ","))
	}

	// Hide owned / hide found only works for premium members.
	if s.statusOwn != TriStateUnset {
		params.Set("ho", s.statusOwn.wireValue())
	}
	if s.statusFound != TriStateUnset {
		params.Set("hf", s.statusFound.wireValue())
	}
	if s.statusMembership != TriStateUnset {
		params.Set("sp", s.statusMembership.wireValue())
	}
	if s.statusEnabled != TriStateUnset {
		params.Set("sd", s.statusEnabled.wireValue())
	}
	if s.statusCorrectedCoord != TriStateUnset {
		params.Set("cc", s.statusCorrectedCoord.wireValue())
	}

	if s.hiddenBy != "" {
		params.Set("hb", s.hiddenBy)
	}
	for _, u := range s.notFoundBy {
		params.Add("nfb", u)
	}
	for _, u := range s.foundBy {
		params.Add("fb", u)
	}

	if s.minFavoritePoints > 0 {
		params.Set("fp", strconv.Itoa(s.minFavoritePoints))
	}

	if s.difficulty != "" {
		params.Set("d", s.difficulty)
	}
	if s.terrain != "" {
		params.Set("t", s.terrain)
	}
	if s.dtCombis != "" {
		params.Set("m", s.dtCombis)
	}

	// after: pad, between: psd/ped, before: pbd
	if s.placedFrom != "" || s.placedTo != "" {
		switch {
		case s.placedFrom == "":
			params.Set("pbd", s.placedTo)
		case s.placedTo == "":
			params.Set("pad", s.placedFrom)
		default:
			params.Set("psd", s.placedFrom)
			params.Set("ped", s.placedTo)
		}
	}

	if s.keywords != "" {
		params.Set("cn", s.keywords)
	}

	// Documented server special case, see SetDeliverLastFoundDateOfFoundBy.
	if s.deliverLastFoundDateOfFoundBy && len(s.foundBy) == 1 {
		params.Set("properties", "callernote")
	}

	params.Set("take", strconv.Itoa(s.take))
	params.Set("skip", strconv.Itoa(s.skip))

	params.Set("sort", s.sort.Keyword())
	if s.sort == SortDistance {
		// Distance sorting needs a measurement origin.
		dOrigin := DefaultLocationSource()
		if s.origin != nil {
			dOrigin = *s.origin
		} else if s.box != nil {
			dOrigin = s.box.Center()
		}
		params.Set("dorigin", formatCoords(dOrigin))
	}
	params.Set("asc", strconv.FormatBool(s.sortAsc))

	// Always identify ourselves towards the service operator.
	params.Set("app", appIdentifier)

	return params
}

// execute runs the query. A box that collapsed to a single point is a soft
// failure: the anomaly is logged with a trace and an empty result set is
// returned without touching the network.
func (s *Search) execute(client *retryablehttp.Client) (*mapSearchResultSet, error) {
	if s.box != nil && s.box.IsJustADot() {
		utils.Log.Debugf("searching map with empty viewport: %s", debug.Stack())
		return &mapSearchResultSet{}, nil
	}

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    APIProxyURL + "/web/search/v2?" + s.buildParams().Encode(),
	}, client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("search failed with status %d", res.StatusCode)
	}

	set := &mapSearchResultSet{}
	if err := json.Unmarshal([]byte(res.BodyString), set); err != nil {
		return nil, fmt.Errorf("unparseable search response: %v", err)
	}
	return set, nil
}
