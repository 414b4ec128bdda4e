package gateways

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/domain/services"
)

// RedirectResolver follows vendor download redirects and parses the version
// out of the final installer URL
type RedirectResolver struct {
	httpClient *http.Client
	parser     *services.FilenameParser
}

// NewRedirectResolver creates a resolver bounded by timeout
func NewRedirectResolver(parser *services.FilenameParser, timeout time.Duration) *RedirectResolver {
	if timeout <= 0 {
		timeout = entities.DefaultResolveTimeout
	}
	return &RedirectResolver{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		parser: parser,
	}
}

// Resolve issues a HEAD request against the target's redirect URL, following
// redirects, and parses the final URL. Transport failures are NetworkErrors,
// unparsable URLs are ParseErrors.
func (r *RedirectResolver) Resolve(ctx context.Context, target entities.PlatformTarget) (*entities.ResolvedVersion, error) {
	finalURL, err := r.finalURL(ctx, target.RedirectURL)
	if err != nil {
		return nil, entities.NetworkError(target.Name, "resolve", err)
	}

	parsed, err := r.parser.ParseURL(finalURL)
	if err != nil {
		return nil, entities.ParseError(target.Name, "resolve", err)
	}

	return &entities.ResolvedVersion{
		Platform:    target.Name,
		ResolvedURL: finalURL,
		Version:     parsed.Version,
		Filename:    parsed.Filename,
		Tag:         parsed.Tag,
		Extension:   parsed.Extension,
	}, nil
}

// finalURL returns the URL of the last request in the redirect chain.
// Headers and body of the final response are ignored.
func (r *RedirectResolver) finalURL(ctx context.Context, redirectURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, redirectURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return redirectURL, nil
	}
	return resp.Request.URL.String(), nil
}
