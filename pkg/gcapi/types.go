// Package gcapi is a typed client for the geocaching.com web/proxy API.
// It covers cache search, log posting (with images and trackable actions),
// trackable inventory and a handful of small profile lookups.
//
// All calls are synchronous and block on network I/O; run them off any
// latency-sensitive goroutine. Retry, proxying and TLS live in pkg/whttp.
package gcapi

import (
	"strconv"
	"strings"
)

// TriState is a filter value that can be asserted true, asserted false, or
// left unset (meaning "don't filter"). Never collapse this into a bool.
type TriState int

const (
	TriStateUnset TriState = iota
	TriStateYes
	TriStateNo
)

func (t TriState) wireValue() string {
	if t == TriStateYes {
		return "0" // "0" hides the negated set, matching the remote semantics
	}
	return "1"
}

// CacheType is a geocache type as understood by the search endpoint.
type CacheType int

const (
	CacheTypeAll CacheType = iota
	CacheTypeTraditional
	CacheTypeMulti
	CacheTypeMystery
	CacheTypeLetterbox
	CacheTypeEvent
	CacheTypeMegaEvent
	CacheTypeGigaEvent
	CacheTypeEarth
	CacheTypeCITO
	CacheTypeWebcam
	CacheTypeVirtual
	CacheTypeWherigo
	CacheTypeCommunityCelebration
	CacheTypeGCHQ
	CacheTypeAPE
	CacheTypeUnknown
)

// wptTypeIDs maps cache types to the numeric waypoint-type ids the wire
// format uses. CacheTypeAll has no id: it is a client-side wildcard and is
// stripped before a query is built.
var wptTypeIDs = map[CacheType]string{
	CacheTypeTraditional:          "2",
	CacheTypeMulti:                "3",
	CacheTypeVirtual:              "4",
	CacheTypeLetterbox:            "5",
	CacheTypeEvent:                "6",
	CacheTypeMystery:              "8",
	CacheTypeAPE:                  "9",
	CacheTypeWebcam:               "11",
	CacheTypeCITO:                 "13",
	CacheTypeEarth:                "137",
	CacheTypeMegaEvent:            "453",
	CacheTypeWherigo:              "1858",
	CacheTypeCommunityCelebration: "3653",
	CacheTypeGCHQ:                 "3773",
	CacheTypeGigaEvent:            "7005",
}

var cacheTypeByWireID map[string]CacheType

// CacheTypeByWireID resolves the numeric type id found in search results.
func CacheTypeByWireID(id string) CacheType {
	if t, ok := cacheTypeByWireID[id]; ok {
		return t
	}
	return CacheTypeUnknown
}

// CacheSize is a container size. One size may cover several remote ids.
type CacheSize int

const (
	CacheSizeNotChosen CacheSize = iota
	CacheSizeMicro
	CacheSizeSmall
	CacheSizeRegular
	CacheSizeLarge
	CacheSizeVirtual
	CacheSizeOther
	CacheSizeUnknown
)

var cacheSizeGcIDs = map[CacheSize][]string{
	CacheSizeNotChosen: {"1"},
	CacheSizeMicro:     {"2"},
	CacheSizeRegular:   {"3"},
	CacheSizeLarge:     {"4", "11"},
	CacheSizeVirtual:   {"5"},
	CacheSizeOther:     {"6"},
	CacheSizeSmall:     {"8"},
}

var cacheSizeByGcID map[string]CacheSize

// CacheSizeByGcID resolves the numeric container id found in search results.
func CacheSizeByGcID(id string) CacheSize {
	if s, ok := cacheSizeByGcID[id]; ok {
		return s
	}
	return CacheSizeUnknown
}

// CacheAttribute is a cache attribute id as used by the remote service.
type CacheAttribute int

// attributeSlugs maps remote attribute ids to printable slugs. The value
// shown for a record is "<slug>_yes" or "<slug>_no" depending on whether the
// attribute applies. Unknown ids are skipped during mapping.
var attributeSlugs = map[int]string{
	1:  "dogs",
	2:  "fee",
	3:  "rappelling",
	4:  "boat",
	5:  "scuba",
	6:  "kids",
	7:  "onehour",
	8:  "scenic",
	9:  "hiking",
	10: "climbing",
	11: "wading",
	12: "swimming",
	13: "available",
	14: "night",
	15: "winter",
	17: "poisonoak",
	18: "dangerousanimals",
	19: "ticks",
	20: "mine",
	21: "cliff",
	22: "hunting",
	23: "danger",
	24: "wheelchair",
	25: "parking",
	26: "public",
	27: "water",
	28: "restrooms",
	29: "phone",
	30: "picnic",
	31: "camping",
	32: "bicycles",
	33: "motorcycles",
	34: "quads",
	35: "jeeps",
	36: "horses",
	37: "campfires",
	38: "thorn",
	40: "stealth",
	41: "stroller",
	42: "firstaid",
	43: "cow",
	44: "flashlight",
	45: "landf",
	46: "rv",
	47: "field_puzzle",
	48: "uv",
	49: "snowshoes",
	50: "skiis",
	51: "s_tool",
	52: "nightcache",
	53: "parkngrab",
	54: "abandonedbuilding",
	55: "hike_short",
	56: "hike_med",
	57: "hike_long",
	58: "fuel",
	59: "food",
	60: "wirelessbeacon",
	61: "partnership",
	62: "seasonal",
	63: "touristok",
	64: "treeclimbing",
	65: "frontyard",
	66: "teamwork",
	67: "geotour",
}

// WireID returns the attribute id sent in the "att" search parameter.
func (a CacheAttribute) WireID() string {
	return strconv.Itoa(int(a))
}

// AttributeValue renders an attribute as shown on a record, or "" for
// unknown ids.
func AttributeValue(id int, applicable bool) string {
	slug, ok := attributeSlugs[id]
	if !ok {
		return ""
	}
	if applicable {
		return slug + "_yes"
	}
	return slug + "_no"
}

// SortType selects the server-side result ordering.
type SortType int

const (
	SortDistance SortType = iota
	SortName
	SortFavoritePoint
	SortSize
	SortDifficulty
	SortTerrain
	SortTrackableCount
	SortHiddenDate
	SortLastFound
)

// sortKeywords is the source of truth for the sort enum <-> wire keyword
// mapping; the reverse map is generated from it once at startup.
var sortKeywords = map[SortType]string{
	SortDistance:       "distance",
	SortName:           "geocacheName",
	SortFavoritePoint:  "favoritePoint",
	SortSize:           "containerSize",
	SortDifficulty:     "difficulty",
	SortTerrain:        "terrain",
	SortTrackableCount: "trackableCount",
	SortHiddenDate:     "placeDate",
	SortLastFound:      "foundDate",
}

var sortByKeyword map[string]SortType

func init() {
	sortByKeyword = make(map[string]SortType)
	for t, kw := range sortKeywords {
		sortByKeyword[strings.ToLower(kw)] = t
	}

	cacheTypeByWireID = make(map[string]CacheType)
	for t, id := range wptTypeIDs {
		cacheTypeByWireID[id] = t
	}

	cacheSizeByGcID = make(map[string]CacheSize)
	for s, ids := range cacheSizeGcIDs {
		for _, id := range ids {
			cacheSizeByGcID[id] = s
		}
	}
}

func (s SortType) Keyword() string {
	return sortKeywords[s]
}

// SortTypeByKeyword resolves a wire keyword, defaulting to distance.
func SortTypeByKeyword(keyword string) SortType {
	if t, ok := sortByKeyword[strings.ToLower(keyword)]; ok {
		return t
	}
	return SortDistance
}

// LogType is a geocache log type id.
type LogType int

const (
	LogTypeFound            LogType = 2
	LogTypeDidNotFind       LogType = 3
	LogTypeNote             LogType = 4
	LogTypeNeedsArchived    LogType = 7
	LogTypeWillAttend       LogType = 9
	LogTypeAttended         LogType = 10
	LogTypeWebcamPhoto      LogType = 11
	LogTypeNeedsMaintenance LogType = 45
	LogTypeOwnerMaintenance LogType = 46
)

// TrackableLogType is a trackable log action id.
type TrackableLogType int

const (
	TrackableLogTypeWriteNote  TrackableLogType = 4
	TrackableLogTypeRetrieved  TrackableLogType = 13
	TrackableLogTypeDropped    TrackableLogType = 14
	TrackableLogTypeGrabbed    TrackableLogType = 19
	TrackableLogTypeDiscovered TrackableLogType = 48
	TrackableLogTypeVisited    TrackableLogType = 75
)

// StatusCode is the closed set of outcomes surfaced by log operations.
type StatusCode int

const (
	StatusNoError StatusCode = iota
	StatusNoLogText
	StatusLogPostError
	StatusLogImagePostError
	StatusAborted
)

func (s StatusCode) String() string {
	switch s {
	case StatusNoError:
		return "no error"
	case StatusNoLogText:
		return "no log text"
	case StatusLogPostError:
		return "log post error"
	case StatusLogImagePostError:
		return "log image post error"
	case StatusAborted:
		return "aborted"
	}
	return "unknown"
}
