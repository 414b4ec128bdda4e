// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// ParsedFilename holds the pieces extracted from an upstream installer name
type ParsedFilename struct {
	Version   string
	Tag       string
	Extension string
	Filename  string
}

// FilenameParser extracts versions from installer URLs of the form
// <Product>-<version>[-<tag>].<ext>
type FilenameParser struct {
	product string
	pattern *regexp.Regexp
}

// NewFilenameParser builds a parser for product and the extension allow-list
func NewFilenameParser(product string, extensions []string) (*FilenameParser, error) {
	if product == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if len(extensions) == 0 {
		return nil, fmt.Errorf("extension allow-list is empty")
	}

	// Longest first so "tar.gz" is tried before a shorter overlapping entry
	exts := append([]string(nil), extensions...)
	sort.SliceStable(exts, func(i, j int) bool { return len(exts[i]) > len(exts[j]) })
	quoted := make([]string, len(exts))
	for i, ext := range exts {
		quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(ext, "."))
	}

	expr := fmt.Sprintf(`^%s-(\d+(?:\.\d+){0,2})(?:-([\w-]+?))?\.(%s)$`,
		regexp.QuoteMeta(product), strings.Join(quoted, "|"))
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filename pattern: %w", err)
	}

	return &FilenameParser{product: product, pattern: pattern}, nil
}

// ParseURL parses the last path segment of a resolved download URL
func (p *FilenameParser) ParseURL(rawURL string) (*ParsedFilename, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	base := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}

	return p.ParseName(base)
}

// ParseName parses a bare filename
func (p *FilenameParser) ParseName(name string) (*ParsedFilename, error) {
	m := p.pattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrNoMatch, name)
	}

	parsed := &ParsedFilename{
		Version:   m[1],
		Tag:       m[2],
		Extension: m[3],
	}
	parsed.Filename = BuildFilename(p.product, parsed.Version, parsed.Tag, parsed.Extension)
	return parsed, nil
}

// BuildFilename reconstructs the local artifact name; the tag segment is
// omitted when empty
func BuildFilename(product, version, tag, ext string) string {
	if tag == "" {
		return fmt.Sprintf("%s-%s.%s", product, version, ext)
	}
	return fmt.Sprintf("%s-%s-%s.%s", product, version, tag, ext)
}

// FilenameSet tracks the local artifact names claimed by platforms in one run
type FilenameSet map[string]string

// Claim reserves info.Filename for info.Platform. A name already held by
// another platform is rebuilt with the platform label appended to the tag;
// when that name is taken too the claim fails with ErrDuplicateFilename.
func (s FilenameSet) Claim(product string, info *entities.ResolvedVersion) error {
	name := info.Filename
	if owner, taken := s[name]; taken && owner != info.Platform {
		tag := info.Platform
		if info.Tag != "" {
			tag = info.Tag + "-" + info.Platform
		}
		name = BuildFilename(product, info.Version, tag, info.Extension)
		if owner, taken := s[name]; taken && owner != info.Platform {
			return fmt.Errorf("%w: %s (held by %s)", entities.ErrDuplicateFilename, info.Filename, s[info.Filename])
		}
	}
	s[name] = info.Platform
	info.Filename = name
	return nil
}
