package gcapi

import (
	"net/url"
	"strings"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// RatingsURL is the community rating lookup endpoint. Overridable for tests.
var RatingsURL = "https://gcvote.com/getVotes.php"

// loadRatings enriches records with community ratings keyed by geocode.
// Strictly best-effort: any failure is logged and the search result is
// returned unrated.
func loadRatings(client *retryablehttp.Client, caches []*Geocache) {
	if len(caches) == 0 {
		return
	}

	byGeocode := make(map[string]*Geocache, len(caches))
	geocodes := make([]string, 0, len(caches))
	for _, c := range caches {
		if c.Geocode == "" {
			continue
		}
		byGeocode[c.Geocode] = c
		geocodes = append(geocodes, c.Geocode)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("waypoints", strings.Join(geocodes, ","))

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    RatingsURL + "?" + params.Encode(),
	}, client)
	if err != nil {
		utils.Log.Warnf("rating lookup failed: %v", err)
		return
	}
	if res.StatusCode != 200 {
		utils.Log.Warnf("rating lookup failed with status %d", res.StatusCode)
		return
	}

	gjson.Get(res.BodyString, "votes").ForEach(func(_, vote gjson.Result) bool {
		geocode := vote.Get("waypoint").Str
		if c, ok := byGeocode[geocode]; ok {
			c.Rating = vote.Get("voteAvg").Float()
		}
		return true
	})
}
