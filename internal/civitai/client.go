// Package civitai is a small client for the Civitai model search API.
package civitai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

var ErrNoResults = errors.New("civitai returned no results")

type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	limit      int
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	delay      time.Duration
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("civitai error: status %d: %s", e.code, e.body)
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 1
	}

	delay := cfg.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		userAgent:  userAgent,
		limit:      limit,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		attempts:   uint(retries) + 1,
		delay:      delay,
	}
}

// Search queries the model search endpoint. Rate limiting and server errors
// are retried; other failures are returned at once.
func (c *Client) Search(ctx context.Context, query string) ([]Model, error) {
	endpoint := c.baseURL + "/models?" + url.Values{
		"query": {query},
		"limit": {strconv.Itoa(c.limit)},
	}.Encode()

	var models []Model
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			result, err := c.get(ctx, endpoint)
			if err != nil {
				return err
			}
			models = result
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &statusError{code: resp.StatusCode, body: truncate(string(respBody), 200)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, serr
		}
		return nil, retry.Unrecoverable(serr)
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to parse response: %w", err))
	}
	return parsed.Items, nil
}

// TrainedWords searches for query and returns the trained words of the first
// result's first model version joined with ", ". An empty string with a nil
// error means the model was found but lists no words.
func (c *Client) TrainedWords(ctx context.Context, query string) (string, error) {
	models, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", ErrNoResults
	}

	versions := models[0].ModelVersions
	if len(versions) == 0 {
		return "", nil
	}

	words := make([]string, 0, len(versions[0].TrainedWords))
	for _, w := range versions[0].TrainedWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, ", "), nil
}

// QueryFromFilename turns a weights file name into a search query: the
// extension is dropped and underscores and hyphens become spaces.
func QueryFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
