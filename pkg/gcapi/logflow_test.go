package gcapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const tokenPage = `<html><head><script>window.__state = {"csrfToken":"tok-123"};</script></head><body></body></html>`

var logDate = time.Date(2023, 9, 8, 22, 31, 54, 0, time.UTC)

func TestPostLogBlankTextSkipsNetwork(t *testing.T) {
	var requests int32
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))

	status, ref := PostLog(nil, "GC123", LogTypeFound, logDate, "   \n ", nil, false)
	if status != StatusNoLogText || ref != "" {
		t.Fatalf("expected NoLogText, got %v / %q", status, ref)
	}
	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Fatalf("blank text issued %d network calls, want 0", n)
	}
}

func TestPostLogSuccess(t *testing.T) {
	var postedBody []byte
	var postedToken string
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/live/geocache/GC123/log":
			fmt.Fprint(w, tokenPage)
		case r.Method == "POST" && r.URL.Path == "/api/live/v1/logs/GC123/geocacheLog":
			postedToken = r.Header.Get("CSRF-Token")
			postedBody, _ = io.ReadAll(r.Body)
			fmt.Fprint(w, `{"guid":"xyz","logReferenceCode":"GL456"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	trackables := []TrackableLog{{Geocode: "TB1", Action: TrackableLogTypeVisited}}
	status, ref := PostLog(nil, "GC123", LogTypeFound, logDate, "Nice cache!", trackables, true)
	if status != StatusNoError {
		t.Fatalf("expected success, got %v", status)
	}
	if ref != "GL456" {
		t.Fatalf("expected reference GL456, got %q", ref)
	}
	if postedToken != "tok-123" {
		t.Fatalf("CSRF token not forwarded, got %q", postedToken)
	}

	var payload webLogRequest
	if err := json.Unmarshal(postedBody, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.LogText != "Nice cache!" || payload.LogType != int(LogTypeFound) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Images == nil || len(payload.Images) != 0 {
		t.Fatalf("images must be an empty array, got %v", payload.Images)
	}
	if len(payload.Trackables) != 1 || payload.Trackables[0].TrackableCode != "TB1" ||
		payload.Trackables[0].TrackableLogTypeID != int(TrackableLogTypeVisited) {
		t.Fatalf("trackable actions lost: %+v", payload.Trackables)
	}
	if !payload.UsedFavoritePoint {
		t.Fatal("favorite point flag lost")
	}
	if !strings.HasPrefix(payload.LogDate, "2023-09-08T") {
		t.Fatalf("unexpected log date: %q", payload.LogDate)
	}
}

func TestPostLogMissingReferenceCodeIsTypedFailure(t *testing.T) {
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, tokenPage)
			return
		}
		fmt.Fprint(w, `{"guid":"xyz"}`)
	}))

	status, ref := PostLog(nil, "GC123", LogTypeFound, logDate, "text", nil, false)
	if status != StatusLogPostError || ref != "" {
		t.Fatalf("expected LogPostError, got %v / %q", status, ref)
	}
}

func TestPostLogTokenFailureFallsBackToLegacyOnce(t *testing.T) {
	var legacyCalls int32
	var totalCalls int32
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&totalCalls, 1)
		switch {
		case r.Method == "GET" && r.URL.Path == "/live/geocache/GC123/log":
			// page without any token
			fmt.Fprint(w, `<html><body>nothing here</body></html>`)
		case r.Method == "POST" && r.URL.Path == "/play/geocache/GC123/log":
			atomic.AddInt32(&legacyCalls, 1)
			fmt.Fprint(w, `{"logReferenceCode":"GL789"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	status, ref := PostLog(nil, "GC123", LogTypeFound, logDate, "text", nil, false)
	if status != StatusNoError || ref != "GL789" {
		t.Fatalf("expected legacy success, got %v / %q", status, ref)
	}
	if n := atomic.LoadInt32(&legacyCalls); n != 1 {
		t.Fatalf("expected exactly one legacy call, got %d", n)
	}
	if n := atomic.LoadInt32(&totalCalls); n != 2 {
		t.Fatalf("expected token fetch + legacy post, got %d calls", n)
	}
}

func TestPostLogLegacyRejection(t *testing.T) {
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, `<html></html>`)
			return
		}
		fmt.Fprint(w, `<html>log form with errors</html>`)
	}))

	status, _ := PostLog(nil, "GC123", LogTypeFound, logDate, "text", nil, false)
	if status != StatusLogPostError {
		t.Fatalf("expected LogPostError from rejected legacy flow, got %v", status)
	}
}

func TestPostTrackableLogTokenFailureAborts(t *testing.T) {
	var posts int32
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			atomic.AddInt32(&posts, 1)
			return
		}
		fmt.Fprint(w, `<html><body>no token</body></html>`)
	}))

	tb := TrackableLog{Geocode: "TB42", Action: TrackableLogTypeWriteNote}
	status, ref := PostTrackableLog(nil, tb, logDate, "hello")
	if status != StatusAborted || ref != "" {
		t.Fatalf("expected Aborted, got %v / %q", status, ref)
	}
	if n := atomic.LoadInt32(&posts); n != 0 {
		t.Fatalf("trackable logs have no fallback, got %d posts", n)
	}
}

func TestPostTrackableLogRetrievedCarriesGeocacheReference(t *testing.T) {
	var postedBody []byte
	page := `<html><script>{"csrfToken":"tok-tb","geocache":{"id":7,"referenceCode":"GC77","name":"Home"}}</script></html>`
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/live/trackable/TB42/log":
			fmt.Fprint(w, page)
		case r.Method == "POST" && r.URL.Path == "/api/live/v1/logs/TB42/trackableLog":
			postedBody, _ = io.ReadAll(r.Body)
			fmt.Fprint(w, `{"logReferenceCode":"TL1"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	tb := TrackableLog{Geocode: "TB42", TrackingCode: "SECRET", Action: TrackableLogTypeRetrieved}
	status, ref := PostTrackableLog(nil, tb, logDate, "got it")
	if status != StatusNoError || ref != "TL1" {
		t.Fatalf("expected success, got %v / %q", status, ref)
	}

	var payload webTrackableLogRequest
	if err := json.Unmarshal(postedBody, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.GeocacheReferenceCode != "GC77" {
		t.Fatalf("retrieved log must carry the geocache reference, got %q", payload.GeocacheReferenceCode)
	}
	if payload.TrackingCode != "SECRET" || payload.LogType != int(TrackableLogTypeRetrieved) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestPostTrackableLogNoteOmitsGeocacheReference(t *testing.T) {
	var postedBody []byte
	page := `<html><script>{"csrfToken":"tok-tb","geocache":{"id":7,"referenceCode":"GC77","name":"Home"}}</script></html>`
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, page)
			return
		}
		postedBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"logReferenceCode":"TL2"}`)
	}))

	tb := TrackableLog{Geocode: "TB42", Action: TrackableLogTypeWriteNote}
	if status, _ := PostTrackableLog(nil, tb, logDate, "note"); status != StatusNoError {
		t.Fatalf("expected success, got %v", status)
	}
	if strings.Contains(string(postedBody), "geocacheReferenceCode") {
		t.Fatal("non-retrieved logs must not carry a geocache reference")
	}
}

func TestPostLogImageFullFlow(t *testing.T) {
	var putCalled bool
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/live/log/GL456":
			fmt.Fprint(w, tokenPage)
		case r.Method == "POST" && r.URL.Path == "/api/live/v1/logs/GL456/images":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("expected multipart upload: %v", err)
			}
			file, header, err := r.FormFile("image")
			if err != nil {
				t.Errorf("missing image field: %v", err)
			} else {
				file.Close()
				if header.Header.Get("Content-Type") != "image/jpeg" {
					t.Errorf("unexpected part content type %q", header.Header.Get("Content-Type"))
				}
			}
			fmt.Fprint(w, `{"guid":"img-1","url":"https://img.example/img-1.jpg","thumbnailUrl":"t","success":true}`)
		case r.Method == "PUT" && r.URL.Path == "/api/live/v1/images/GL456/img-1/replace":
			putCalled = true
			if r.Header.Get("CSRF-Token") != "tok-123" {
				t.Errorf("metadata update must reuse the token, got %q", r.Header.Get("CSRF-Token"))
			}
			fmt.Fprint(w, `{"guid":"img-1","url":"https://img.example/img-1.jpg"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	status, url := PostLogImage(nil, "GL456", Image{Data: []byte("jpegdata"), Title: "Sunset"})
	if status != StatusNoError {
		t.Fatalf("expected success, got %v", status)
	}
	if url != "https://img.example/img-1.jpg" {
		t.Fatalf("unexpected image url %q", url)
	}
	if !putCalled {
		t.Fatal("non-blank title must trigger the metadata update")
	}
}

func TestPostLogImageBlankMetadataSkipsUpdate(t *testing.T) {
	var putCalled int32
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			fmt.Fprint(w, tokenPage)
		case "POST":
			fmt.Fprint(w, `{"guid":"img-1","url":"https://img.example/img-1.jpg"}`)
		case "PUT":
			atomic.AddInt32(&putCalled, 1)
		}
	}))

	status, _ := PostLogImage(nil, "GL456", Image{Data: []byte("jpegdata"), Title: "  ", Description: ""})
	if status != StatusNoError {
		t.Fatalf("expected success, got %v", status)
	}
	if n := atomic.LoadInt32(&putCalled); n != 0 {
		t.Fatalf("all-blank metadata must skip the update, got %d PUTs", n)
	}
}

func TestPostLogImageMissingGuidIsTypedFailure(t *testing.T) {
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, tokenPage)
			return
		}
		fmt.Fprint(w, `{"success":false}`)
	}))

	status, _ := PostLogImage(nil, "GL456", Image{Data: []byte("x")})
	if status != StatusLogImagePostError {
		t.Fatalf("expected LogImagePostError, got %v", status)
	}
}

func TestPostLogImageTokenFailure(t *testing.T) {
	var posts int32
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			atomic.AddInt32(&posts, 1)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	status, _ := PostLogImage(nil, "GL456", Image{Data: []byte("x")})
	if status != StatusLogImagePostError {
		t.Fatalf("expected LogImagePostError, got %v", status)
	}
	if n := atomic.LoadInt32(&posts); n != 0 {
		t.Fatalf("image flow has no fallback, got %d posts", n)
	}
}

func TestGetHTMLAndCsrfTokenMetaTagFallback(t *testing.T) {
	newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="csrf-token" content="meta-tok"></head><body></body></html>`)
	}))

	_, token, ok := getHTMLAndCsrfToken(nil, WebsiteURL+"/live/geocache/GC1/log")
	if !ok || token != "meta-tok" {
		t.Fatalf("expected meta tag fallback to yield meta-tok, got %q (ok=%v)", token, ok)
	}
}
