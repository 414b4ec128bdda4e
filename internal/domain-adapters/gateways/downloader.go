package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// chunkSize is the buffer used when streaming response bodies to disk
const chunkSize = 8192

// Downloader streams resolved installers to local storage
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a new downloader bounded by timeout
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = entities.DefaultDownloadTimeout
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: timeout, // Long timeout for large downloads
		},
	}
}

// Download fetches info.ResolvedURL into outputDir/info.Filename.
// Partial output is removed when the transfer fails.
func (d *Downloader) Download(ctx context.Context, product string, info *entities.ResolvedVersion, outputDir string) (*entities.Artifact, error) {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, info.Filename)

	written, err := d.downloadFile(ctx, info.ResolvedURL, outputPath)
	if err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("failed to remove partial download: %w", rmErr))
		}
		return nil, entities.NetworkError(info.Platform, "download", err)
	}

	return &entities.Artifact{
		Name:     product,
		Version:  info.Version,
		Platform: info.Platform,
		Path:     outputPath,
		Size:     written,
	}, nil
}

// downloadFile downloads a file from URL to destination
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: dest is built from a parsed, reconstructed filename
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.CopyBuffer(out, resp.Body, make([]byte, chunkSize))
	if err != nil {
		_ = out.Close()
		return written, fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("failed to close file: %w", err)
	}

	return written, nil
}
