package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bookharvest/models"
	"bookharvest/proxy"
	"bookharvest/sites"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHarvester struct {
	results []models.Candidate
	err     error
	got     models.SearchTask
}

func (f *fakeHarvester) Harvest(_ context.Context, task models.SearchTask) ([]models.Candidate, error) {
	f.got = task
	return f.results, f.err
}

type fakeRelay struct {
	result *proxy.Result
	err    error
}

func (f *fakeRelay) Relay(context.Context, string, json.RawMessage) (*proxy.Result, error) {
	return f.result, f.err
}

func post(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/proxy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScrapeTaskRouting(t *testing.T) {
	harvester := &fakeHarvester{
		results: []models.Candidate{{
			Site:      "小立盘",
			Title:     "曾国藩传 - 张宏杰",
			DetailURL: "https://www.xiaolipan.com/p/1496858.html",
			Relevance: 60,
		}},
	}
	router := New(harvester, &fakeRelay{})

	rec := post(t, router, `{"scrapeTask":{"target":"xiaolipan","query":"曾国藩传","author":"张宏杰"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if harvester.got.Site != "xiaolipan" || harvester.got.Author != "张宏杰" {
		t.Fatalf("task not forwarded: %+v", harvester.got)
	}

	var out []models.Candidate
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].DetailURL != "https://www.xiaolipan.com/p/1496858.html" {
		t.Fatalf("unexpected payload: %v", out)
	}
}

func TestScrapeEmptyResultIsJSONArray(t *testing.T) {
	router := New(&fakeHarvester{results: nil}, &fakeRelay{})

	rec := post(t, router, `{"scrapeTask":{"target":"xiaolipan","query":"没有结果的查询"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty result must encode as [], got %q", got)
	}
}

func TestScrapeUnknownSiteRejected(t *testing.T) {
	harvester := &fakeHarvester{err: sites.ErrUnknownSite}
	router := New(harvester, &fakeRelay{})

	rec := post(t, router, `{"scrapeTask":{"target":"unknown_site","query":"曾国藩传"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRelayRouting(t *testing.T) {
	relay := &fakeRelay{result: &proxy.Result{
		Status:      http.StatusTooManyRequests,
		ContentType: "application/json",
		Body:        []byte(`{"error":"quota"}`),
	}}
	router := New(&fakeHarvester{}, relay)

	rec := post(t, router, `{"apiKey":"k","body":{"contents":[]}}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("upstream status must pass through, got %d", rec.Code)
	}
	if rec.Body.String() != `{"error":"quota"}` {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRelayUpstreamUnreachable(t *testing.T) {
	router := New(&fakeHarvester{}, &fakeRelay{err: errors.New("dial failed")})

	rec := post(t, router, `{"apiKey":"k","body":{}}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestMissingAPIKeyRejected(t *testing.T) {
	router := New(&fakeHarvester{}, &fakeRelay{})

	rec := post(t, router, `{"body":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	router := New(&fakeHarvester{}, &fakeRelay{})

	rec := post(t, router, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestNonPOSTMethodNotAllowed(t *testing.T) {
	router := New(&fakeHarvester{}, &fakeRelay{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/proxy", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s /api/proxy: status = %d, want 405", method, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	router := New(&fakeHarvester{}, &fakeRelay{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
