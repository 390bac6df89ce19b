// Package shortener shortens share links through a configured external
// service. Shortening is best-effort: any failure, timeout or
// misconfiguration returns the original URL unchanged.
package shortener

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const requestTimeout = 10 * time.Second

type site struct {
	endpoint    string
	requiresKey bool
}

func defaultSites() map[string]site {
	return map[string]site{
		"tinyurl.com": {endpoint: "https://tinyurl.com/api-create.php"},
		"is.gd":       {endpoint: "https://is.gd/create.php"},
		"v.gd":        {endpoint: "https://v.gd/create.php"},
		"bit.ly":      {endpoint: "https://api-ssl.bitly.com/v4/shorten", requiresKey: true},
		"cutt.ly":     {endpoint: "https://cutt.ly/api/api.php", requiresKey: true},
	}
}

// Shortener calls the configured shortening service.
type Shortener struct {
	enabled bool
	site    string
	apiKey  string
	sites   map[string]site
	client  *http.Client
	logger  *log.Logger
}

// New creates a Shortener. With enabled=false Shorten is a pass-through.
func New(enabled bool, siteName, apiKey string, logger *log.Logger) *Shortener {
	return &Shortener{
		enabled: enabled,
		site:    siteName,
		apiKey:  apiKey,
		sites:   defaultSites(),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// Enabled reports whether shortening is active.
func (s *Shortener) Enabled() bool { return s.enabled }

// Site returns the configured service name.
func (s *Shortener) Site() string { return s.site }

// Shorten returns a shortened form of longURL, or longURL itself on any
// failure. It never returns an error.
func (s *Shortener) Shorten(ctx context.Context, longURL string) string {
	if !s.enabled {
		return longURL
	}

	cfg, ok := s.sites[s.site]
	if !ok {
		s.logger.Warn("unsupported shortener site", "site", s.site)
		return longURL
	}
	if cfg.requiresKey && s.apiKey == "" {
		s.logger.Warn("shortener site requires an api key", "site", s.site)
		return longURL
	}

	var (
		short string
		err   error
	)
	switch s.site {
	case "tinyurl.com":
		short, err = s.simpleGet(ctx, cfg.endpoint, url.Values{"url": {longURL}})
	case "is.gd", "v.gd":
		short, err = s.simpleGet(ctx, cfg.endpoint, url.Values{"format": {"simple"}, "url": {longURL}})
	case "bit.ly":
		short, err = s.bitly(ctx, cfg.endpoint, longURL)
	case "cutt.ly":
		short, err = s.cuttly(ctx, cfg.endpoint, longURL)
	}
	if err != nil || short == "" {
		s.logger.Warn("url shortening failed", "site", s.site, "error", err)
		return longURL
	}
	return short
}

// simpleGet handles services that answer a GET with the short URL as a
// plain-text body.
func (s *Shortener) simpleGet(ctx context.Context, endpoint string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http") {
		return "", nil
	}
	return short, nil
}

func (s *Shortener) bitly(ctx context.Context, endpoint, longURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"long_url": longURL})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", nil
	}
	var out struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Link, nil
}

func (s *Shortener) cuttly(ctx context.Context, endpoint, longURL string) (string, error) {
	params := url.Values{"key": {s.apiKey}, "short": {longURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	var out struct {
		URL struct {
			Status    int    `json:"status"`
			ShortLink string `json:"shortLink"`
		} `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL.Status != 7 {
		return "", nil
	}
	return out.URL.ShortLink, nil
}
