package tle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php"

// Fetcher retrieves element sets from Celestrak, one catalog number per
// request.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher against the given GP endpoint; empty means
// Celestrak.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch performs an HTTP GET for one satellite's element set in 3-line
// format.
func (f *Fetcher) Fetch(ctx context.Context, noradID int) ([]byte, error) {
	url := fmt.Sprintf("%s?CATNR=%d&FORMAT=tle", f.baseURL, noradID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE for %d: %w", noradID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
