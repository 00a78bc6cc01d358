package gcapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer points the package endpoints at a local server for the
// duration of one test.
func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)

	oldWebsite, oldProxy, oldRatings := WebsiteURL, APIProxyURL, RatingsURL
	WebsiteURL = srv.URL
	APIProxyURL = srv.URL + "/api/proxy"
	RatingsURL = srv.URL + "/getVotes.php"

	t.Cleanup(func() {
		WebsiteURL, APIProxyURL, RatingsURL = oldWebsite, oldProxy, oldRatings
		srv.Close()
	})
	return srv
}
