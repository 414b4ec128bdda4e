package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
	"github.com/ochairo/relmirror/internal/domain/interfaces/gateways"
)

const (
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second
	// Page size for list endpoints
	releasesPerPage = 100
	// Safety cap on pagination
	maxReleasePages = 50

	defaultAPIURL    = "https://api.github.com"
	defaultUserAgent = "relmirror/1.0"
)

// GitHubGatewayConfig configures the HTTP GitHub gateway
type GitHubGatewayConfig struct {
	Token string
	// APIURL defaults to https://api.github.com
	APIURL string
	// MaxRetries applies to idempotent GET requests only; 0 disables retries
	MaxRetries int
	Logger     interfaces.Logger
}

// HTTPGitHubGateway implements GitHubGateway using standard HTTP client
type HTTPGitHubGateway struct {
	client     *http.Client
	token      string
	apiURL     string
	userAgent  string
	maxRetries int
	logger     interfaces.Logger
	sleep      func(time.Duration)
}

// NewHTTPGitHubGateway creates a new GitHub gateway with HTTP client
func NewHTTPGitHubGateway(cfg GitHubGatewayConfig) *HTTPGitHubGateway {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &HTTPGitHubGateway{
		client: &http.Client{
			Timeout: 5 * time.Minute, // Large installer uploads
		},
		token:      cfg.Token,
		apiURL:     apiURL,
		userAgent:  defaultUserAgent,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// checkRateLimit checks GitHub API rate limit headers and returns error if exhausted
func (g *HTTPGitHubGateway) checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	if remainingInt == 0 {
		resetTime := resp.Header.Get("X-RateLimit-Reset")
		if resetTime != "" {
			if resetUnix, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				resetAt := time.Unix(resetUnix, 0)
				return fmt.Errorf("GitHub API rate limit exceeded (0 remaining), resets at %s", resetAt.Format(time.RFC3339))
			}
		}
		return fmt.Errorf("GitHub API rate limit exceeded (0 remaining)")
	}

	if remainingInt <= 10 {
		g.logger.Warn("GitHub API rate limit low", interfaces.F("remaining", remainingInt))
	}

	return nil
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// do executes an HTTP request; GET requests are retried with exponential
// backoff up to maxRetries times
func (g *HTTPGitHubGateway) do(req *http.Request) (*http.Response, error) {
	retries := 0
	if req.Method == http.MethodGet {
		retries = g.maxRetries
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			g.sleep(calculateBackoff(attempt - 1))
		}

		resp, err = g.client.Do(req)
		if err != nil {
			if attempt < retries && req.Context().Err() == nil {
				continue
			}
			return nil, err
		}

		if rateLimitErr := g.checkRateLimit(resp); rateLimitErr != nil {
			//nolint:errcheck,gosec // G104: Best effort close on rate limit error
			resp.Body.Close()
			return nil, rateLimitErr
		}

		if !isRetryableError(resp.StatusCode) || attempt == retries {
			return resp, nil
		}

		//nolint:errcheck,gosec // G104: Best effort close before retry
		resp.Body.Close()
		g.logger.Debug("retrying GitHub request",
			interfaces.F("status", resp.StatusCode),
			interfaces.F("attempt", attempt+1))
	}

	return resp, err
}

func (g *HTTPGitHubGateway) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	return req, nil
}

// githubRelease represents the GitHub API release format
type githubRelease struct {
	ID          int64  `json:"id,omitempty"`
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	Draft       bool   `json:"draft"`
	Prerelease  bool   `json:"prerelease"`
	CreatedAt   string `json:"created_at,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	HTMLURL     string `json:"html_url,omitempty"`
	UploadURL   string `json:"upload_url,omitempty"`
}

func (r githubRelease) toDomain() *gateways.GitHubRelease {
	return &gateways.GitHubRelease{
		ID:          r.ID,
		TagName:     r.TagName,
		Name:        r.Name,
		Body:        r.Body,
		Draft:       r.Draft,
		Prerelease:  r.Prerelease,
		CreatedAt:   r.CreatedAt,
		PublishedAt: r.PublishedAt,
		HTMLURL:     r.HTMLURL,
		UploadURL:   r.UploadURL,
	}
}

// githubAsset represents a GitHub release asset
type githubAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Label              string `json:"label"`
	State              string `json:"state"`
	Size               int64  `json:"size"`
	DownloadCount      int    `json:"download_count"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ListReleases lists all releases in a repository, following pagination
func (g *HTTPGitHubGateway) ListReleases(ctx context.Context, owner, repo string) ([]*gateways.GitHubRelease, error) {
	var releases []*gateways.GitHubRelease

	for page := 1; page <= maxReleasePages; page++ {
		target := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d",
			g.apiURL, url.PathEscape(owner), url.PathEscape(repo), releasesPerPage, page)

		req, err := g.newRequest(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}

		resp, err := g.do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list releases: %w", err)
		}

		apiReleases, err := decodeReleasePage(resp)
		if err != nil {
			return nil, err
		}

		for _, r := range apiReleases {
			releases = append(releases, r.toDomain())
		}

		if len(apiReleases) < releasesPerPage {
			return releases, nil
		}
	}

	return releases, nil
}

func decodeReleasePage(resp *http.Response) ([]githubRelease, error) {
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list releases: status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiReleases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&apiReleases); err != nil {
		return nil, fmt.Errorf("failed to decode releases: %w", err)
	}
	return apiReleases, nil
}

// CreateRelease creates a new GitHub release
func (g *HTTPGitHubGateway) CreateRelease(ctx context.Context, owner, repo string, release *gateways.GitHubRelease) (*gateways.GitHubRelease, error) {
	target := fmt.Sprintf("%s/repos/%s/%s/releases", g.apiURL, url.PathEscape(owner), url.PathEscape(repo))

	apiRelease := githubRelease{
		TagName:    release.TagName,
		Name:       release.Name,
		Body:       release.Body,
		Draft:      release.Draft,
		Prerelease: release.Prerelease,
	}

	body, err := json.Marshal(apiRelease)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal release: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create release: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create release: status %d (failed to read response)", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to create release: status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.toDomain(), nil
}

// UploadAsset streams content to a release's upload URL
func (g *HTTPGitHubGateway) UploadAsset(ctx context.Context, uploadURL, filename string, content io.Reader, size int64) (*gateways.GitHubAsset, error) {
	// GitHub returns URLs like: https://uploads.github.com/.../assets{?name,label}
	baseURL := strings.Split(uploadURL, "{")[0]

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upload URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid upload URL: %q", uploadURL)
	}

	// Uploads go to uploads.github.com, never the API host
	if parsed.Host == "api.github.com" {
		parsed.Host = "uploads.github.com"
	}

	query := parsed.Query()
	query.Set("name", filename)
	parsed.RawQuery = query.Encode()

	if size == 0 {
		content = http.NoBody
	}

	req, err := g.newRequest(ctx, http.MethodPost, parsed.String(), content)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = size

	resp, err := g.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to upload asset: status %d (failed to read response)", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to upload asset: status %d: %s (URL: %s)", resp.StatusCode, string(bodyBytes), parsed.String())
	}

	var result githubAsset
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &gateways.GitHubAsset{
		ID:                 result.ID,
		Name:               result.Name,
		Label:              result.Label,
		State:              result.State,
		Size:               result.Size,
		DownloadCount:      result.DownloadCount,
		BrowserDownloadURL: result.BrowserDownloadURL,
	}, nil
}
