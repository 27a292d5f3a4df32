// Package catalog provides a client for the title catalog API: search by
// title and fetch full details by catalog ID.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/screenpick/screenpick/internal/model"
)

// Client defines the two catalog operations the pipeline depends on.
type Client interface {
	// Search performs a title search and returns candidate summaries.
	Search(ctx context.Context, query string) ([]model.CandidateSummary, error)
	// Details fetches the full record for a catalog ID.
	Details(ctx context.Context, id string) (*model.CandidateDetail, error)
}

// Option configures the catalog client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client for the given API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://www.omdbapi.com",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the wire format of a title search.
type searchResponse struct {
	Search []struct {
		Title  string `json:"Title"`
		Year   string `json:"Year"`
		ID     string `json:"imdbID"`
		Type   string `json:"Type"`
		Poster string `json:"Poster"`
	} `json:"Search"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// detailResponse is the wire format of a detail fetch.
type detailResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Genre    string `json:"Genre"`
	Director string `json:"Director"`
	Actors   string `json:"Actors"`
	Country  string `json:"Country"`
	Rating   string `json:"imdbRating"`
	Poster   string `json:"Poster"`
	Type     string `json:"Type"`
	ID       string `json:"imdbID"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (c *httpClient) Search(ctx context.Context, query string) ([]model.CandidateSummary, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("s", query)

	var parsed searchResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, eris.Wrapf(err, "catalog: search %q", query)
	}

	if parsed.Response != "True" {
		if isRateLimitMessage(parsed.Error) {
			return nil, &RateLimitError{Message: parsed.Error}
		}
		// "Movie not found!" and similar are empty results, not failures.
		return nil, nil
	}

	out := make([]model.CandidateSummary, 0, len(parsed.Search))
	for _, r := range parsed.Search {
		out = append(out, model.CandidateSummary{
			CatalogID: r.ID,
			Title:     r.Title,
			Year:      parseYear(r.Year),
			Kind:      model.ParseMediaKind(r.Type),
			Poster:    cleanPoster(r.Poster),
		})
	}
	return out, nil
}

func (c *httpClient) Details(ctx context.Context, id string) (*model.CandidateDetail, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", id)

	var parsed detailResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, eris.Wrapf(err, "catalog: details %s", id)
	}

	if parsed.Response != "True" {
		if isRateLimitMessage(parsed.Error) {
			return nil, &RateLimitError{Message: parsed.Error}
		}
		return nil, eris.Wrapf(ErrNotFound, "catalog: details %s", id)
	}

	return &model.CandidateDetail{
		CatalogID: parsed.ID,
		Title:     parsed.Title,
		Year:      parseYear(parsed.Year),
		Genres:    splitList(parsed.Genre),
		Rating:    parseRating(parsed.Rating),
		Directors: splitList(parsed.Director),
		Actors:    splitList(parsed.Actors),
		Countries: splitList(parsed.Country),
		Poster:    cleanPoster(parsed.Poster),
		Kind:      model.ParseMediaKind(parsed.Type),
	}, nil
}

func (c *httpClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return eris.Wrap(err, "read body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: "http 429"}
	case resp.StatusCode == http.StatusUnauthorized:
		// The provider reports an exhausted daily quota as 401 with a
		// limit message in the body.
		if isRateLimitMessage(string(body)) {
			return &RateLimitError{Message: "daily request limit reached"}
		}
		return eris.Errorf("unauthorized: %s", strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// parseYear extracts the leading release year from values like "2021" or
// "2015–2019" (series ranges).
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return y
}

// parseRating converts the catalog rating string to a float, 0 for "N/A".
func parseRating(s string) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return r
}

// splitList splits the catalog's comma-separated tag fields, dropping "N/A".
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" && p != "N/A" {
			out = append(out, p)
		}
	}
	return out
}

func cleanPoster(s string) string {
	if s == "N/A" {
		return ""
	}
	return s
}
