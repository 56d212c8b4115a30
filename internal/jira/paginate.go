package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Page is Jira's page-at-a-time list shape.
type Page struct {
	StartAt    int               `json:"startAt"`
	MaxResults int               `json:"maxResults"`
	Total      int               `json:"total"`
	IsLast     bool              `json:"isLast"`
	Values     []json.RawMessage `json:"values"`
}

// PaginatedGet fetches every page of uri and returns them merged into a single
// last page whose values hold all entries in page order.
func (c *Client) PaginatedGet(ctx context.Context, uri string) ([]byte, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}

	values := make([]json.RawMessage, 0)
	total := 0
	for pages := 0; ; pages++ {
		body, err := c.Get(ctx, fmt.Sprintf("%s%sstartAt=%d", uri, sep, len(values)))
		if err != nil {
			return nil, err
		}

		page, err := parsePage(body)
		if err != nil {
			log.Error().Err(err).Str("instance", c.Server.ID).Str("uri", uri).Int("page", pages).Msg("Malformed paginated response")
			return nil, err
		}
		if page.hasTotal {
			total = page.Total
		}
		values = append(values, page.Values...)

		if page.IsLast {
			break
		}
		if len(page.Values) == 0 {
			return nil, fmt.Errorf("%w: page %d is empty but not last", ErrMalformedPaginatedResponse, pages)
		}
	}

	if len(values) != total {
		log.Warn().Str("instance", c.Server.ID).Str("uri", uri).Int("values", len(values)).Int("total", total).Msg("Accumulated entries differ from reported total")
	}

	merged, err := json.Marshal(Page{
		StartAt:    0,
		MaxResults: len(values),
		Total:      total,
		IsLast:     true,
		Values:     values,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPaginatedResponse, err)
	}
	return merged, nil
}

type parsedPage struct {
	Page
	hasTotal bool
}

func parsePage(body []byte) (*parsedPage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPaginatedResponse, err)
	}

	p := &parsedPage{}
	isLast, ok := raw["isLast"]
	if !ok {
		return nil, fmt.Errorf("%w: missing isLast", ErrMalformedPaginatedResponse)
	}
	if err := json.Unmarshal(isLast, &p.IsLast); err != nil {
		return nil, fmt.Errorf("%w: isLast: %w", ErrMalformedPaginatedResponse, err)
	}

	values, ok := raw["values"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(values), []byte("[")) {
		return nil, fmt.Errorf("%w: missing values array", ErrMalformedPaginatedResponse)
	}
	if err := json.Unmarshal(values, &p.Values); err != nil {
		return nil, fmt.Errorf("%w: values: %w", ErrMalformedPaginatedResponse, err)
	}

	if t, ok := raw["total"]; ok {
		if err := json.Unmarshal(t, &p.Total); err != nil {
			return nil, fmt.Errorf("%w: total: %w", ErrMalformedPaginatedResponse, err)
		}
		p.hasTotal = true
	}
	return p, nil
}
