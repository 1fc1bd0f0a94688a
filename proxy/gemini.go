// Package proxy relays generateContent requests to the upstream generative
// language API. It is a pure pass-through: the body goes up verbatim and the
// upstream status, content type, and body come back unchanged. The harvester
// never calls this; it is a sibling capability behind the same entry point.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com"
	defaultModel    = "gemini-2.5-pro"
)

// Result carries the upstream response back to the caller untouched.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// Client forwards requests to one upstream endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	model    string
}

// New builds a relay client against the default upstream.
func New() *Client {
	return &Client{
		http:     resty.New(),
		endpoint: defaultEndpoint,
		model:    defaultModel,
	}
}

// SetEndpoint overrides the upstream base URL. Used by tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Relay posts body to the model endpoint using apiKey as the query
// credential. An error is returned only for transport failures; upstream
// HTTP errors are passed through inside the Result.
func (c *Client) Relay(ctx context.Context, apiKey string, body json.RawMessage) (*Result, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", apiKey).
		SetBody([]byte(body)).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("relay upstream: %w", err)
	}

	return &Result{
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
