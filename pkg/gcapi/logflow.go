package gcapi

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/geoscout/geoscout/internal/utils"
	"github.com/geoscout/geoscout/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	csrfTokenHeader = "CSRF-Token"

	logTimestampLayout = "2006-01-02T15:04:05.000"

	// how much of a server body ends up in a caller-visible diagnostic
	maxDiagnosticLen = 200
)

var (
	// The log pages embed the token in a JSON blob inside a script tag.
	csrfTokenPattern = regexp.MustCompile(`"csrfToken"\s*:\s*"([^"]+)"`)

	// Trackable log pages carry the geocache the trackable currently sits
	// in as a JSON snippet like {"id":123,"referenceCode":"GCxyz","name":"x"}.
	tbCurrentGeocachePattern = regexp.MustCompile(`"geocache"\s*:\s*(\{[^{}]*"referenceCode"[^{}]*\})`)

	legacyLogReferencePattern = regexp.MustCompile(`\b(GL[A-Z0-9]{4,})\b`)
)

// Wire payloads of the modern log flow.

type webLogTrackable struct {
	TrackableCode      string `json:"trackableCode"`
	TrackableLogTypeID int    `json:"trackableLogTypeId"`
}

type webLogRequest struct {
	Images            []string          `json:"images"`
	LogDate           string            `json:"logDate"`
	LogText           string            `json:"logText"`
	LogType           int               `json:"logType"`
	Trackables        []webLogTrackable `json:"trackables"`
	UsedFavoritePoint bool              `json:"usedFavoritePoint"`
}

type webTrackableLogRequest struct {
	Images                []string `json:"images"`
	LogDate               string   `json:"logDate"`
	LogText               string   `json:"logText"`
	LogType               int      `json:"logType"`
	TrackingCode          string   `json:"trackingCode"`
	GeocacheReferenceCode string   `json:"geocacheReferenceCode,omitempty"`
}

// PostLog posts a log for a geocache. Blank text is rejected before any
// network traffic. When the modern flow's CSRF token cannot be obtained the
// legacy endpoint is tried instead. On success the returned string is the
// server-assigned log reference code.
func PostLog(client *retryablehttp.Client, geocode string, logType LogType, date time.Time,
	text string, trackables []TrackableLog, addToFavorites bool) (StatusCode, string) {

	if strings.TrimSpace(text) == "" {
		utils.Log.Warn("PostLog: no log text given")
		return StatusNoLogText, ""
	}

	logInfo := strings.TrimSpace(strings.ReplaceAll(text, "\n", "\r\n"))
	utils.Log.Infof("posting log for %s - type: %d, date: %s, trackables: %d, log: %s",
		geocode, logType, date.Format(paramDateLayout), len(trackables), utils.Truncate(logInfo, 80))

	// 1) fetch the log page and extract a valid CSRF token
	_, csrfToken, ok := getHTMLAndCsrfToken(client, WebsiteURL+"/live/geocache/"+geocode+"/log")
	if !ok {
		utils.Log.Warn("log post: unable to extract CSRF token, falling back to legacy log flow")
		return postLogLegacy(client, geocode, logType, date, text, addToFavorites)
	}

	// 2) fill the log entry and post it
	entry := &webLogRequest{
		Images:            []string{},
		LogDate:           date.Format(logTimestampLayout),
		LogText:           text,
		LogType:           int(logType),
		Trackables:        []webLogTrackable{},
		UsedFavoritePoint: addToFavorites,
	}
	for _, t := range trackables {
		entry.Trackables = append(entry.Trackables, webLogTrackable{
			TrackableCode:      t.Geocode,
			TrackableLogTypeID: int(t.Action),
		})
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return logError(false, "cannot marshal log entry: "+err.Error())
	}

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:      "POST",
		URL:         WebsiteURL + "/api/live/v1/logs/" + geocode + "/geocacheLog",
		Headers:     []whttp.WHTTPHeader{{Name: csrfTokenHeader, Value: csrfToken}},
		Body:        body,
		ContentType: "application/json",
	}, client)
	if err != nil {
		return logError(false, "problem posting log: "+err.Error())
	}

	refCode := gjson.Get(res.BodyString, "logReferenceCode").Str
	if refCode == "" {
		return logError(false, "problem posting log, response is: "+utils.Truncate(res.BodyString, maxDiagnosticLen))
	}

	return StatusNoError, refCode
}

// postLogLegacy is the older, still-supported log flow: a single form POST
// against the play log page, no CSRF token needed. The field set was
// reconstructed from observed traffic; keep it in one place.
func postLogLegacy(client *retryablehttp.Client, geocode string, logType LogType,
	date time.Time, text string, addToFavorites bool) (StatusCode, string) {

	form := url.Values{}
	form.Set("logType", strconv.Itoa(int(logType)))
	form.Set("logDate", date.Format(paramDateLayout))
	form.Set("logText", text)
	form.Set("usedFavoritePoints", strconv.FormatBool(addToFavorites))

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:     "POST",
		URL:        WebsiteURL + "/play/geocache/" + geocode + "/log",
		FormValues: form,
	}, client)
	if err != nil {
		return logError(false, "legacy log flow failed: "+err.Error())
	}

	refCode := gjson.Get(res.BodyString, "logReferenceCode").Str
	if refCode == "" {
		refCode = utils.FirstMatch(res.BodyString, legacyLogReferencePattern)
	}
	if res.StatusCode != 200 || refCode == "" {
		return logError(false, "legacy log flow rejected, response is: "+utils.Truncate(res.BodyString, maxDiagnosticLen))
	}

	return StatusNoError, refCode
}

// PostLogImage attaches an image to an existing log. The upload and the
// optional metadata update reuse one CSRF token; there is no legacy path for
// images. On success the returned string is the image URL.
func PostLogImage(client *retryablehttp.Client, logID string, image Image) (StatusCode, string) {
	// 1) token from the "edit log" page
	_, csrfToken, ok := getHTMLAndCsrfToken(client, WebsiteURL+"/live/log/"+logID)
	if !ok {
		utils.Log.Warn("log image post: unable to extract CSRF token")
		return logError(true, "no CSRF token found")
	}

	// 2) upload the raw image bytes. Name and description are uploaded
	// separately, sending them here times out on the server side.
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:  "POST",
		URL:     WebsiteURL + "/api/live/v1/logs/" + logID + "/images",
		Headers: []whttp.WHTTPHeader{{Name: csrfTokenHeader, Value: csrfToken}},
		Multipart: &whttp.WHTTPMultipartFile{
			FieldName:   "image",
			FileName:    "image.jpg",
			ContentType: "image/jpeg",
			Data:        image.Data,
		},
	}, client)
	if err != nil {
		return logError(true, "problem posting image: "+err.Error())
	}

	guid := gjson.Get(res.BodyString, "guid").Str
	imgURL := gjson.Get(res.BodyString, "url").Str
	if guid == "" || imgURL == "" {
		return logError(true, "problem posting image, response is: "+utils.Truncate(res.BodyString, maxDiagnosticLen))
	}

	// 3) PUT name and description; skipped entirely when both are blank
	form := url.Values{}
	if strings.TrimSpace(image.Title) != "" {
		form.Set("name", image.Title)
	}
	if strings.TrimSpace(image.Description) != "" {
		form.Set("description", image.Description)
	}

	if len(form) > 0 {
		// same CSRF token is still valid for this second request
		putRes, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
			Method:     "PUT",
			URL:        WebsiteURL + "/api/live/v1/images/" + logID + "/" + guid + "/replace",
			Headers:    []whttp.WHTTPHeader{{Name: csrfTokenHeader, Value: csrfToken}},
			FormValues: form,
		}, client)
		if err != nil {
			return logError(true, "problem putting image metadata: "+err.Error())
		}
		if gjson.Get(putRes.BodyString, "url").Str == "" {
			return logError(true, "problem putting image: "+utils.Truncate(putRes.BodyString, maxDiagnosticLen))
		}
	}

	return StatusNoError, imgURL
}

// PostTrackableLog posts a log for a trackable. There is no legacy flow for
// trackables: a failed token fetch aborts the submission.
func PostTrackableLog(client *retryablehttp.Client, tbLog TrackableLog, date time.Time, text string) (StatusCode, string) {
	if strings.TrimSpace(text) == "" {
		utils.Log.Warn("PostTrackableLog: no log text given")
		return StatusNoLogText, ""
	}

	tbCode := tbLog.Geocode

	// 1) token from the trackable log page
	html, csrfToken, ok := getHTMLAndCsrfToken(client, WebsiteURL+"/live/trackable/"+tbCode+"/log")
	if !ok {
		utils.Log.Warn("trackable log post: unable to extract CSRF token")
		return StatusAborted, ""
	}

	// 1.5) the page may reference the geocache the trackable sits in
	geocacheReferenceCode := ""
	if snippet := utils.FirstMatch(html, tbCurrentGeocachePattern); snippet != "" {
		geocacheReferenceCode = gjson.Get(snippet, "referenceCode").Str
	}

	// 2) fill the trackable log entry and post it
	entry := &webTrackableLogRequest{
		Images:       []string{},
		LogDate:      date.Format(logTimestampLayout),
		LogText:      text,
		LogType:      int(tbLog.Action),
		TrackingCode: tbLog.TrackingCode,
	}
	// RETRIEVED logs must name the geocache the trackable was taken from
	if tbLog.Action == TrackableLogTypeRetrieved {
		entry.GeocacheReferenceCode = geocacheReferenceCode
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return logError(false, "cannot marshal trackable log entry: "+err.Error())
	}

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:      "POST",
		URL:         WebsiteURL + "/api/live/v1/logs/" + tbCode + "/trackableLog",
		Headers:     []whttp.WHTTPHeader{{Name: csrfTokenHeader, Value: csrfToken}},
		Body:        body,
		ContentType: "application/json",
	}, client)
	if err != nil {
		return logError(false, "problem posting trackable log: "+err.Error())
	}

	refCode := gjson.Get(res.BodyString, "logReferenceCode").Str
	if refCode == "" {
		return logError(false, "problem posting trackable log, response is: "+utils.Truncate(res.BodyString, maxDiagnosticLen))
	}

	return StatusNoError, refCode
}

func logError(image bool, msg string) (StatusCode, string) {
	if image {
		utils.Log.Warn("LOG IMAGE ERROR: " + msg)
		return StatusLogImagePostError, ""
	}
	utils.Log.Warn("LOG ERROR: " + msg)
	return StatusLogPostError, ""
}

// getHTMLAndCsrfToken fetches an authenticated page and extracts its CSRF
// token, first from the embedded JSON blob, then from a csrf-token meta tag.
func getHTMLAndCsrfToken(client *retryablehttp.Client, pageURL string) (html, token string, ok bool) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    pageURL,
	}, client)
	if err != nil {
		utils.Log.Warnf("unable to fetch log page %s: %v", pageURL, err)
		return "", "", false
	}

	token = utils.FirstMatch(res.BodyString, csrfTokenPattern)
	if token == "" {
		if doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(res.BodyString)); docErr == nil {
			token, _ = doc.Find(`meta[name="csrf-token"]`).Attr("content")
		}
	}

	if res.StatusCode != 200 || token == "" {
		utils.Log.Warnf("unable to find a CSRF token in log page %s (status %d)", pageURL, res.StatusCode)
		return "", "", false
	}
	return res.BodyString, token, true
}
