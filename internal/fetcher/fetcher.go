package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"welcome-screen-backend/config"
	"welcome-screen-backend/internal/occupancy"
)

// dateMinParam is filled with today's date when configured empty.
const dateMinParam = "date_min"

// Service downloads the reservations export.
type Service struct {
	cfg    *config.FetcherConfig
	client *http.Client
	clock  occupancy.Clock
}

// NewService creates and initializes a new fetcher service.
func NewService(cfg *config.FetcherConfig, clock occupancy.Clock) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Fetcher will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		clock: clock,
	}
}

// Fetch downloads the export and returns its body.
func (s *Service) Fetch(ctx context.Context) (string, error) {
	log.Println("Downloading reservations export...")

	data, err := s.download(ctx)
	if err != nil {
		return "", err
	}
	log.Printf("Downloaded %d bytes", len(data))
	return data, nil
}

func (s *Service) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Request.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	for key, value := range s.cfg.Request.Params {
		if key == dateMinParam && value == "" {
			value = s.clock.Now().Format("2006-01-02")
		}
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	for key, value := range s.cfg.Request.Headers {
		req.Header.Set(key, value)
	}
	for name, value := range s.cfg.Request.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
