package gcapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
)

// maxTake is the page size for paginated proxy endpoints.
const maxTake = 50

// SearchCaches executes a search and returns normalized records in server
// order. The ALL type wildcard is stripped here, not in the builder. When
// includeRatings is set the records are enriched with external ratings; a
// failing enrichment never fails the search. Pass a nil client to use the
// shared one.
func SearchCaches(client *retryablehttp.Client, search *Search, includeRatings bool) (*SearchResult, error) {
	search.stripAllWildcard()

	set, err := search.execute(client)
	if err != nil {
		return nil, err
	}

	leftToFetch, caches := mapResultSet(set, search)
	guessMissingDistances(caches, search)

	if includeRatings {
		loadRatings(client, caches)
	}

	return &SearchResult{LeftToFetch: leftToFetch, Caches: caches}, nil
}

// GetTrackableInventory fetches the caller's complete trackable inventory,
// paging sequentially until the first short page.
func GetTrackableInventory(client *retryablehttp.Client) ([]TrackableInventoryEntry, error) {
	var inventory []TrackableInventoryEntry
	skip := 0
	for {
		res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
			Method: "GET",
			URL: fmt.Sprintf("%s/trackables?inCollection=false&take=%d&skip=%d",
				APIProxyURL, maxTake, skip),
		}, client)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != 200 {
			return nil, fmt.Errorf("trackable inventory fetch failed with status %d", res.StatusCode)
		}

		var entries []TrackableInventoryEntry
		if err := json.Unmarshal([]byte(res.BodyString), &entries); err != nil {
			return nil, fmt.Errorf("unparseable trackable inventory response: %v", err)
		}

		inventory = append(inventory, entries...)
		if len(entries) < maxTake {
			break
		}
		skip += maxTake
	}
	return inventory, nil
}

// GetAvailableFavoritePoints returns the favorite point budget of the given
// profile (a "PR..." user code).
func GetAvailableFavoritePoints(client *retryablehttp.Client, profile string) (int, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    APIProxyURL + "/web/v1/users/" + profile + "/availablefavoritepoints",
	}, client)
	if err != nil {
		return 0, err
	}
	if res.StatusCode != 200 {
		return 0, fmt.Errorf("favorite point fetch failed with status %d", res.StatusCode)
	}

	points, err := strconv.Atoi(strings.TrimSpace(res.BodyString))
	if err != nil {
		return 0, fmt.Errorf("unparseable favorite point response: %s", utils.Truncate(res.BodyString, maxDiagnosticLen))
	}
	return points, nil
}

// GetNeededDifficultyTerrainCombis returns the D/T combinations still
// missing from the caller's 81 matrix. The answer is a JSON string array
// like ["1-4.5","5-5"]; malformed entries are skipped with a warning.
func GetNeededDifficultyTerrainCombis(client *retryablehttp.Client) ([]DTCombi, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    APIProxyURL + "/web/v1/statistics/difficultyterrainmatrix/needed",
	}, client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("dt matrix fetch failed with status %d", res.StatusCode)
	}

	var rawCombis []string
	if err := json.Unmarshal([]byte(res.BodyString), &rawCombis); err != nil {
		return nil, fmt.Errorf("unparseable dt matrix response: %v", err)
	}

	combis := make([]DTCombi, 0, len(rawCombis))
	for _, raw := range rawCombis {
		parts := strings.SplitN(raw, "-", 2)
		if len(parts) != 2 {
			utils.Log.Warnf("problems parsing dt-combi %q", raw)
			continue
		}
		difficulty, err1 := strconv.ParseFloat(parts[0], 64)
		terrain, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			utils.Log.Warnf("problems parsing dt-combi %q", raw)
			continue
		}
		combis = append(combis, DTCombi{Difficulty: difficulty, Terrain: terrain})
	}
	return combis, nil
}
