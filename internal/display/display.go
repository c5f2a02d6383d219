package display

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"welcome-screen-backend/config"
)

// ErrPublishFailed wraps a non-200 response from the welcome screen API.
var ErrPublishFailed = errors.New("welcome screen update failed")

// sessionCookie is the only cookie the host settings endpoint needs.
const sessionCookie = "ks.session"

// Publisher pushes a welcome title to a display device.
type Publisher interface {
	Publish(ctx context.Context, message string) error
}

// RokuPublisher updates the guest mode welcome screen title of a Roku device.
type RokuPublisher struct {
	cfg    *config.DisplayConfig
	client *http.Client
}

// NewRokuPublisher creates a publisher for the configured device.
func NewRokuPublisher(cfg *config.DisplayConfig) *RokuPublisher {
	return &RokuPublisher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type hostSettings struct {
	WelcomeScreenTitle string `json:"welcomeScreenTitle"`
}

// Publish sends the title and succeeds only on HTTP 200.
func (p *RokuPublisher) Publish(ctx context.Context, message string) error {
	body, err := json.Marshal(hostSettings{WelcomeScreenTitle: message})
	if err != nil {
		return fmt.Errorf("failed to marshal host settings: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/" + url.PathEscape(p.cfg.DeviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: p.cfg.SessionToken})

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrPublishFailed, resp.StatusCode)
	}
	return nil
}

// LogPublisher only records the message. It stands in for a device when
// display updates are disabled.
type LogPublisher struct {
	Printf func(format string, v ...any)
}

// Publish implements Publisher.
func (p LogPublisher) Publish(_ context.Context, message string) error {
	if p.Printf != nil {
		p.Printf("Display disabled; would publish %q", message)
	}
	return nil
}
