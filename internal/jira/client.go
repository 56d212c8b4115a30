package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const applicationJSON = "application/json"

// Client performs requests against one Jira server. Responses are returned verbatim;
// HTTP status codes are not interpreted, so Jira's own error bodies reach the caller.
type Client struct {
	Server     *Server
	HTTPClient *http.Client
}

// NewClient returns a client for server. A nil httpClient leaves timeouts to the transport defaults.
func NewClient(server *Server, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{Server: server, HTTPClient: httpClient}
}

// endpoint resolves uri against the server URL, keeping any context path (e.g. /jira).
func (c *Client) endpoint(uri string) string {
	return strings.TrimSuffix(c.Server.URL.String(), "/") + uri
}

// Get issues a GET for uri, which must already be query-encoded.
func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(uri), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", applicationJSON)
	return c.do(ctx, req)
}

// Post issues a POST of body to uri.
func (c *Client) Post(ctx context.Context, uri string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(uri), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", applicationJSON)
	req.Header.Set("Accept", applicationJSON)
	if json.Valid(body) {
		log.Debug().RawJSON("request_body", body).Str("url", req.URL.String()).Msg("Sending Jira POST request")
	}
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if a := c.Server.Authenticator; a != nil {
		if err := a.Authenticate(ctx, req); err != nil {
			return nil, fmt.Errorf("%w: authenticate: %w", ErrRequestFailed, err)
		}
	}

	log.Debug().Str("instance", c.Server.ID).Str("method", req.Method).Str("url", req.URL.String()).Msg("Sending Jira request")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("instance", c.Server.ID).Str("url", req.URL.String()).Msg("Jira request failed")
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}

	evt := log.Debug().Str("instance", c.Server.ID).Int("status_code", resp.StatusCode)
	if json.Valid(body) {
		evt = evt.RawJSON("response_body", body)
	} else {
		evt = evt.Int("response_bytes", len(body))
	}
	evt.Msg("Received Jira response")

	return body, nil
}
