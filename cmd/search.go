package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/gcapi"
	"github.com/geoscout/geoscout/pkg/geo"
	"github.com/geoscout/geoscout/pkg/storage"
)

var cacheTypeFlags = map[string]gcapi.CacheType{
	"traditional": gcapi.CacheTypeTraditional,
	"multi":       gcapi.CacheTypeMulti,
	"mystery":     gcapi.CacheTypeMystery,
	"letterbox":   gcapi.CacheTypeLetterbox,
	"event":       gcapi.CacheTypeEvent,
	"earth":       gcapi.CacheTypeEarth,
	"virtual":     gcapi.CacheTypeVirtual,
	"webcam":      gcapi.CacheTypeWebcam,
	"wherigo":     gcapi.CacheTypeWherigo,
	"all":         gcapi.CacheTypeAll,
}

var cacheSizeFlags = map[string]gcapi.CacheSize{
	"micro":   gcapi.CacheSizeMicro,
	"small":   gcapi.CacheSizeSmall,
	"regular": gcapi.CacheSizeRegular,
	"large":   gcapi.CacheSizeLarge,
	"other":   gcapi.CacheSizeOther,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search geocaches",
	Long:  "Searches geocaches around an origin or inside a bounding box, with optional type/size/status filters.",
	Run: func(cmd *cobra.Command, args []string) {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		types, _ := cmd.Flags().GetString("types")
		sizes, _ := cmd.Flags().GetString("sizes")
		keywords, _ := cmd.Flags().GetString("keywords")
		hiddenBy, _ := cmd.Flags().GetString("hidden-by")
		foundBy, _ := cmd.Flags().GetStringSlice("found-by")
		notFoundBy, _ := cmd.Flags().GetStringSlice("not-found-by")
		minFav, _ := cmd.Flags().GetInt("min-favorites")
		dMin, _ := cmd.Flags().GetFloat64("difficulty-min")
		dMax, _ := cmd.Flags().GetFloat64("difficulty-max")
		tMin, _ := cmd.Flags().GetFloat64("terrain-min")
		tMax, _ := cmd.Flags().GetFloat64("terrain-max")
		hideFound, _ := cmd.Flags().GetBool("hide-found")
		hideOwn, _ := cmd.Flags().GetBool("hide-own")
		take, _ := cmd.Flags().GetInt("take")
		skip, _ := cmd.Flags().GetInt("skip")
		sortKey, _ := cmd.Flags().GetString("sort")
		desc, _ := cmd.Flags().GetBool("desc")
		ratings, _ := cmd.Flags().GetBool("ratings")
		dbPath, _ := cmd.Flags().GetString("db")

		search := gcapi.NewSearch().
			SetOrigin(&geo.Geopoint{Latitude: lat, Longitude: lon}).
			SetPage(take, skip).
			SetSort(gcapi.SortTypeByKeyword(sortKey), !desc)

		for _, t := range splitList(types) {
			ct, ok := cacheTypeFlags[t]
			if !ok {
				utils.Log.Fatal("Unknown cache type: ", t)
			}
			search.AddCacheTypes(ct)
		}
		for _, s := range splitList(sizes) {
			cs, ok := cacheSizeFlags[s]
			if !ok {
				utils.Log.Fatal("Unknown cache size: ", s)
			}
			search.AddCacheSizes(cs)
		}

		if keywords != "" {
			search.SetKeywords(keywords)
		}
		if hiddenBy != "" {
			search.SetHiddenBy(hiddenBy)
		}
		for _, u := range foundBy {
			search.AddFoundBy(u)
		}
		for _, u := range notFoundBy {
			search.AddNotFoundBy(u)
		}
		if minFav > 0 {
			search.SetMinFavoritePoints(minFav)
		}
		if !math.IsNaN(dMin) || !math.IsNaN(dMax) {
			search.SetDifficulty(dMin, dMax)
		}
		if !math.IsNaN(tMin) || !math.IsNaN(tMax) {
			search.SetTerrain(tMin, tMax)
		}
		if hideFound {
			search.SetStatusFound(gcapi.TriStateNo)
		}
		if hideOwn {
			search.SetStatusOwn(gcapi.TriStateNo)
		}

		result, err := gcapi.SearchCaches(nil, search, ratings)
		if err != nil {
			utils.Log.Fatal("Search failed: ", err)
		}

		for _, c := range result.Caches {
			line := fmt.Sprintf("%s\t%s\tD%.1f/T%.1f", c.Geocode, c.Name, c.Difficulty, c.Terrain)
			if c.HasDistance {
				line += fmt.Sprintf("\t%.2fkm", c.Distance)
			}
			if c.Rating > 0 {
				line += fmt.Sprintf("\t%.2f*", c.Rating)
			}
			fmt.Println(line)
		}
		utils.Log.Infof("%d caches shown, %d left to fetch", len(result.Caches), result.LeftToFetch)

		if dbPath != "" {
			storeResults(dbPath, result.Caches)
		}
	},
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func storeResults(dbPath string, caches []*gcapi.Geocache) {
	db, err := storage.Open(dbPath)
	if err != nil {
		utils.Log.Fatal("Cannot open database: ", err)
	}
	defer db.Close()

	records := make([]storage.Record, 0, len(caches))
	for _, c := range caches {
		records = append(records, toStorageRecord(c))
	}

	changes, err := db.UpsertRecords(context.Background(), records)
	if err != nil {
		utils.Log.Fatal("Cannot store results: ", err)
	}
	utils.Log.Infof("stored %d caches (%d changed)", len(records), len(changes))
}

func toStorageRecord(c *gcapi.Geocache) storage.Record {
	r := storage.Record{
		Geocode:        c.Geocode,
		Name:           c.Name,
		Type:           fmt.Sprintf("%d", c.Type),
		Size:           fmt.Sprintf("%d", c.Size),
		Difficulty:     c.Difficulty,
		Terrain:        c.Terrain,
		FavoritePoints: c.FavoritePoints,
		Disabled:       c.Disabled,
		Archived:       c.Archived,
		Owner:          c.OwnerDisplayName,
		PremiumOnly:    c.PremiumOnly,
	}
	if c.Coords != nil {
		r.Latitude, r.Longitude, r.HasCoords = c.Coords.Latitude, c.Coords.Longitude, true
	}
	switch c.Found {
	case gcapi.TriStateYes:
		r.Found = "yes"
	case gcapi.TriStateNo:
		r.Found = "no"
	}
	return r
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Float64P("lat", "", 0, "Origin latitude")
	searchCmd.Flags().Float64P("lon", "", 0, "Origin longitude")
	searchCmd.Flags().StringP("types", "t", "", "Comma-separated cache types (traditional,multi,mystery,...)")
	searchCmd.Flags().StringP("sizes", "s", "", "Comma-separated cache sizes (micro,small,regular,large,other)")
	searchCmd.Flags().StringP("keywords", "k", "", "Keyword filter on the cache name")
	searchCmd.Flags().StringP("hidden-by", "", "", "Exact owner name")
	searchCmd.Flags().StringSliceP("found-by", "", nil, "Only caches found by these users")
	searchCmd.Flags().StringSliceP("not-found-by", "", nil, "Only caches not found by these users")
	searchCmd.Flags().IntP("min-favorites", "", 0, "Minimum favorite points")
	searchCmd.Flags().Float64P("difficulty-min", "", math.NaN(), "Minimum difficulty (1-5)")
	searchCmd.Flags().Float64P("difficulty-max", "", math.NaN(), "Maximum difficulty (1-5)")
	searchCmd.Flags().Float64P("terrain-min", "", math.NaN(), "Minimum terrain (1-5)")
	searchCmd.Flags().Float64P("terrain-max", "", math.NaN(), "Maximum terrain (1-5)")
	searchCmd.Flags().BoolP("hide-found", "", false, "Hide caches you already found (premium only)")
	searchCmd.Flags().BoolP("hide-own", "", false, "Hide your own caches (premium only)")
	searchCmd.Flags().IntP("take", "", 50, "Page size")
	searchCmd.Flags().IntP("skip", "", 0, "Page offset")
	searchCmd.Flags().StringP("sort", "", "distance", "Sort key (distance, geocacheName, favoritePoint, containerSize, difficulty, terrain, trackableCount, placeDate, foundDate)")
	searchCmd.Flags().BoolP("desc", "", false, "Sort descending")
	searchCmd.Flags().BoolP("ratings", "", false, "Enrich results with community ratings")
	searchCmd.Flags().StringP("db", "", "", "SQLite file to store results in")
}
