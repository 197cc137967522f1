// internal/adapters/upstream/client.go
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"voice_reviews/internal/adapters/observability"
	"voice_reviews/internal/domain"
)

var (
	ErrNotConfigured = errors.New("upstream: endpoint not configured")
	ErrUnavailable   = errors.New("upstream: unavailable")
)

type Client struct {
	endpoint string
	hc       *http.Client
	rl       *rate.Limiter
}

// New builds a client for the reviews endpoint. An empty endpoint is allowed;
// such a client reports no data for every business.
func New(endpoint string, timeout time.Duration, rps int) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		hc:       &http.Client{Timeout: timeout},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// FetchReviews is the fail-soft variant of Fetch: every failure is logged and
// collapses to an empty list.
func (c *Client) FetchReviews(ctx context.Context, businessID string) []domain.RawRecord {
	recs, err := c.Fetch(ctx, businessID)
	if err != nil {
		log.Warn().
			Str("business_id", businessID).
			Str("err_type", observability.LabelErr(err)).
			Err(err).
			Msg("upstream fetch failed; treating as no data")
		return []domain.RawRecord{}
	}
	return recs
}

// Fetch issues GET <endpoint>?companyId=<businessID>. Only a 200 with a JSON
// array body counts as success. Non-object array items are dropped.
func (c *Client) Fetch(ctx context.Context, businessID string) ([]domain.RawRecord, error) {
	if c.endpoint == "" {
		return nil, ErrNotConfigured
	}
	u, err := c.buildURL(businessID)
	if err != nil {
		return nil, err
	}

	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "voice-reviews/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("upstream", "reviews", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("upstream", "reviews", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	// numbers stay json.Number so one out-of-range value cannot fail the whole array
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode reviews payload: %w", err)
	}
	out := make([]domain.RawRecord, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Client) buildURL(businessID string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse upstream endpoint: %w", err)
	}
	q := u.Query()
	q.Set("companyId", businessID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
