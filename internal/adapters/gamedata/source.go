package gamedata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/metrics"
)

// maxDocumentSize caps the game document body.
const maxDocumentSize = 4 << 20

// Source implements ports.GameSource over HTTP.
type Source struct {
	client *http.Client
}

// NewSource creates a Source whose requests time out after timeout.
func NewSource(timeout time.Duration) *Source {
	return &Source{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and decodes the game document at url. It makes a single
// attempt; retrying is up to the caller.
func (s *Source) Fetch(ctx context.Context, url string) (*domain.GameBundle, error) {
	start := time.Now()
	defer func() { metrics.BundleLoadDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrDataLoadFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", domain.ErrDataLoadFailure, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d for %s", domain.ErrDataLoadFailure, resp.StatusCode, url)
	}

	return Decode(io.LimitReader(resp.Body, maxDocumentSize))
}
