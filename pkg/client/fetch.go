package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// ErrArchiveUnavailable is returned when the registry has no stored
// archive for the requested package.
var ErrArchiveUnavailable = errors.New("package archive not available")

// Downloader fetches package archives with a per-registry circuit
// breaker so a dead registry fails fast instead of hammering it.
type Downloader struct {
	client   *Client
	http     *http.Client
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewDownloader creates a downloader reusing the client's session
// token and cached-DNS transport.
func NewDownloader(c *Client) *Downloader {
	return &Downloader{
		client: c,
		http: &http.Client{
			Timeout:   5 * time.Minute, // Archives can be large
			Transport: cachedTransport(),
		},
		breakers: make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (d *Downloader) getBreaker(host string) *circuit.Breaker {
	d.mu.RLock()
	breaker, exists := d.breakers[host]
	d.mu.RUnlock()

	if exists {
		return breaker
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := d.breakers[host]; exists {
		return breaker
	}

	// Trips after 5 consecutive failures, recovers with exponential backoff
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})

	d.breakers[host] = breaker
	return breaker
}

// Download streams the archive for the package id into dest and
// returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, packageID, dest string) (int64, error) {
	downloadURL := d.client.DownloadURL(packageID)

	host := downloadURL
	if parsed, err := url.Parse(downloadURL); err == nil {
		host = parsed.Host
	}

	breaker := d.getBreaker(host)
	if !breaker.Ready() {
		return 0, fmt.Errorf("circuit breaker open for registry %s", host)
	}

	var written int64
	var fetchErr error
	err := breaker.Call(func() error {
		written, fetchErr = d.fetch(ctx, downloadURL, dest)
		if errors.Is(fetchErr, ErrArchiveUnavailable) {
			// A missing archive is not a registry failure
			return nil
		}
		return fetchErr
	}, 0)
	if err != nil {
		return 0, err
	}
	return written, fetchErr
}

func (d *Downloader) fetch(ctx context.Context, downloadURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if token := d.client.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach registry: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return 0, ErrArchiveUnavailable
	default:
		body, _ := io.ReadAll(resp.Body)
		return 0, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer file.Close()

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return written, nil
}
