package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Snapshot   SnapshotConfig   `yaml:"snapshot"`
	Display    DisplayConfig    `yaml:"display"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the host alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys and the host's browser subscriptions.
// Alerts are disabled when either key is empty.
type PushConfig struct {
	PublicKey     string             `yaml:"vapid_public_key"`
	PrivateKey    string             `yaml:"vapid_private_key"`
	Subject       string             `yaml:"subject"`
	TTL           int                `yaml:"ttl"`
	Subscriptions []PushSubscription `yaml:"subscriptions"`
}

// PushSubscription is one browser push endpoint belonging to the host.
type PushSubscription struct {
	Endpoint string `yaml:"endpoint"`
	P256DH   string `yaml:"p256dh"`
	Auth     string `yaml:"auth"`
}

// Enabled reports whether host alerts can be sent.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration. RequestIPHeader names
// the header that identifies clients for rate limiting; leave it empty unless
// a proxy in front of the server overwrites it.
type ServerConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// FetcherConfig describes the reservations export download.
type FetcherConfig struct {
	Enabled         bool           `yaml:"enabled"`
	IntervalSeconds int            `yaml:"interval_seconds"`
	Interval        time.Duration  `yaml:"-"` // Ignored by YAML parser
	TimeoutSeconds  int            `yaml:"timeout_seconds"`
	Timeout         time.Duration  `yaml:"-"`
	HTTPProxy       string         `yaml:"http_proxy"`
	Timezone        string         `yaml:"timezone"`
	Location        *time.Location `yaml:"-"`
	Request         FetcherRequest `yaml:"request"`
}

// FetcherRequest defines the HTTP request for the reservations export.
// A query param configured with an empty value for date_min is filled with
// today's date at request time.
type FetcherRequest struct {
	URL     string            `yaml:"url"`
	Params  map[string]string `yaml:"params"`
	Cookies map[string]string `yaml:"cookies"`
	Headers map[string]string `yaml:"headers"`
}

// SnapshotConfig points at the local copy of the last downloaded export.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// DisplayConfig holds the TV welcome screen credentials.
type DisplayConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BaseURL        string        `yaml:"base_url"`
	DeviceID       string        `yaml:"device_id"`
	SessionToken   string        `yaml:"session_token"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// ResolverConfig tunes guest selection and message formatting.
type ResolverConfig struct {
	CheckinCutoff             string        `yaml:"checkin_cutoff"`
	Cutoff                    time.Duration `yaml:"-"`
	VacantName                string        `yaml:"vacant_name"`
	City                      string        `yaml:"city"`
	MessageLimit              int           `yaml:"message_limit"`
	ShowReservationWhenVacant *bool         `yaml:"show_reservation_when_vacant"`
}

// ShowFallback reports whether a future or past reservation is shown when
// nobody is in residence. Unset means true.
func (r ResolverConfig) ShowFallback() bool {
	return r.ShowReservationWhenVacant == nil || *r.ShowReservationWhenVacant
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Fetcher.IntervalSeconds <= 0 {
		cfg.Fetcher.IntervalSeconds = 300
	}
	cfg.Fetcher.Interval = time.Duration(cfg.Fetcher.IntervalSeconds) * time.Second

	if cfg.Fetcher.TimeoutSeconds <= 0 {
		cfg.Fetcher.TimeoutSeconds = 30
	}
	cfg.Fetcher.Timeout = time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second

	cfg.Fetcher.Location = time.Local
	if cfg.Fetcher.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Fetcher.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone %q: %w", cfg.Fetcher.Timezone, err)
		}
		cfg.Fetcher.Location = loc
	}

	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "reservations.csv"
	}

	if cfg.Display.BaseURL == "" {
		cfg.Display.BaseURL = "https://my.roku.com/account/api/v1/guest-mode/host-settings"
	}
	if cfg.Display.TimeoutSeconds <= 0 {
		cfg.Display.TimeoutSeconds = 30
	}
	cfg.Display.Timeout = time.Duration(cfg.Display.TimeoutSeconds) * time.Second

	if cfg.Resolver.CheckinCutoff == "" {
		cfg.Resolver.CheckinCutoff = "11:00"
	}
	cutoff, err := ParseTimeOfDay(cfg.Resolver.CheckinCutoff)
	if err != nil {
		return err
	}
	cfg.Resolver.Cutoff = cutoff
	if cfg.Resolver.VacantName == "" {
		cfg.Resolver.VacantName = "Guest"
	}
	if cfg.Resolver.City == "" {
		cfg.Resolver.City = "Seattle"
	}
	if cfg.Resolver.MessageLimit <= 0 {
		cfg.Resolver.MessageLimit = 40
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	return nil
}

// ParseTimeOfDay converts an "HH:MM" string into the offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
