// Package icd provides a client for the WHO ICD-11 API used for diagnosis
// code suggestions.
package icd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://icdaccessmanagement.who.int/connect/token"
	defaultAPIBase  = "https://id.who.int/icd/release/11"

	// tokenSafetyMargin is subtracted from the advertised token lifetime so a
	// token is never used right at its expiry boundary.
	tokenSafetyMargin = 30 * time.Second

	requestTimeout = 15 * time.Second
)

// Suggestion is a single diagnosis suggestion from the ICD-11 index.
type Suggestion struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Config holds WHO ICD API credentials and release selection.
type Config struct {
	ClientID     string
	ClientSecret string
	Release      string // e.g. "2024-01"
	TokenURL     string // overridable for tests
	APIBase      string // overridable for tests
}

// Client talks to the WHO ICD-11 API. The OAuth2 access token is cached
// process-wide and refreshed under lock when it nears expiry.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Release == "" {
		cfg.Release = "2024-01"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid access token, fetching a fresh one if the cached
// token is missing or close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("scope", "icdapi_access")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting icd token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("icd token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding icd token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("icd token response has no access_token")
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSafetyMargin)
	return c.accessToken, nil
}

type searchResponse struct {
	DestinationEntities []struct {
		TheCode string `json:"theCode"`
		Title   string `json:"title"`
	} `json:"destinationEntities"`
}

// Search queries the ICD-11 MMS linearization for diagnosis suggestions
// matching the given free-text term.
func (c *Client) Search(ctx context.Context, term string) ([]Suggestion, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/mms/search", c.cfg.APIBase, c.cfg.Release)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building icd search request: %w", err)
	}

	q := req.URL.Query()
	q.Set("q", term)
	q.Set("useFlexisearch", "true")
	q.Set("flatResults", "true")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "es")
	req.Header.Set("API-Version", "v2")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting icd search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icd search returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding icd search response: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(sr.DestinationEntities))
	for _, e := range sr.DestinationEntities {
		suggestions = append(suggestions, Suggestion{
			Code:  e.TheCode,
			Title: stripMarkup(e.Title),
		})
	}
	return suggestions, nil
}

// stripMarkup removes the <em> match-highlight tags the ICD API embeds in
// titles.
func stripMarkup(s string) string {
	r := strings.NewReplacer("<em class='found'>", "", "</em>", "")
	return r.Replace(s)
}
