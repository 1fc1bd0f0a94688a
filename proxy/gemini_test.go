package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func testRelay() (*Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	client := New()
	client.SetEndpoint("http://upstream.test")
	client.http.GetClient().Transport = transport
	return client, transport
}

func TestRelayPassesThrough(t *testing.T) {
	client, transport := testRelay()
	upstream := "http://upstream.test/v1beta/models/gemini-2.5-pro:generateContent"

	transport.RegisterResponder("POST", upstream,
		func(req *http.Request) (*http.Response, error) {
			if got := req.URL.Query().Get("key"); got != "secret-key" {
				t.Errorf("key query param = %q", got)
			}
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Errorf("body not relayed verbatim: %v", err)
			}
			resp := httpmock.NewStringResponse(200, `{"candidates":[]}`)
			resp.Header.Set("Content-Type", "application/json")
			return resp, nil
		})

	body := json.RawMessage(`{"contents":[{"parts":[{"text":"hi"}]}]}`)
	result, err := client.Relay(context.Background(), "secret-key", body)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if result.Status != 200 {
		t.Fatalf("status = %d", result.Status)
	}
	if result.ContentType != "application/json" {
		t.Fatalf("content type = %q", result.ContentType)
	}
	if string(result.Body) != `{"candidates":[]}` {
		t.Fatalf("body = %q", result.Body)
	}
}

func TestRelayReturnsUpstreamErrorsUnchanged(t *testing.T) {
	client, transport := testRelay()
	transport.RegisterResponder("POST", "http://upstream.test/v1beta/models/gemini-2.5-pro:generateContent",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error":"quota"}`))

	result, err := client.Relay(context.Background(), "k", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("upstream HTTP errors pass through, not fail: %v", err)
	}
	if result.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d", result.Status)
	}
	if string(result.Body) != `{"error":"quota"}` {
		t.Fatalf("body = %q", result.Body)
	}
}
