package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// ReleaseStatus represents the readiness of a set of downloaded artifacts for release
type ReleaseStatus string

// Release validation statuses
const (
	StatusReady            ReleaseStatus = "ready"
	StatusMissingPlatforms ReleaseStatus = "missing_platforms"
	StatusNoArtifacts      ReleaseStatus = "no_artifacts"
)

// ReleaseValidation contains the platform coverage of a candidate release
type ReleaseValidation struct {
	Status             ReleaseStatus
	ExpectedPlatforms  []string
	AvailablePlatforms []string
	MissingPlatforms   []string
	ExpectedCount      int
	AvailableCount     int
}

// IsReady returns true if every configured platform has an artifact
func (rv *ReleaseValidation) IsReady() bool {
	return rv.Status == StatusReady
}

// ErrorMessage returns a human-readable error message if not ready
func (rv *ReleaseValidation) ErrorMessage() string {
	switch rv.Status {
	case StatusReady:
		return ""
	case StatusNoArtifacts:
		return fmt.Sprintf("no artifacts downloaded (expected: %d platforms)", rv.ExpectedCount)
	case StatusMissingPlatforms:
		return fmt.Sprintf("%d of %d platforms downloaded, missing: %s",
			rv.AvailableCount, rv.ExpectedCount, strings.Join(rv.MissingPlatforms, ", "))
	default:
		return "unknown status"
	}
}

// ReleaseService handles release validation logic
type ReleaseService struct{}

// NewReleaseService creates a new release service
func NewReleaseService() *ReleaseService {
	return &ReleaseService{}
}

// ValidateRelease compares the configured targets against downloaded artifacts.
// Platform order follows the configuration.
func (s *ReleaseService) ValidateRelease(targets []entities.PlatformTarget, artifacts []*entities.Artifact) *ReleaseValidation {
	validation := &ReleaseValidation{}

	have := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		have[a.Platform] = true
	}

	for _, t := range targets {
		validation.ExpectedPlatforms = append(validation.ExpectedPlatforms, t.Name)
		if have[t.Name] {
			validation.AvailablePlatforms = append(validation.AvailablePlatforms, t.Name)
		} else {
			validation.MissingPlatforms = append(validation.MissingPlatforms, t.Name)
		}
	}
	validation.ExpectedCount = len(validation.ExpectedPlatforms)
	validation.AvailableCount = len(validation.AvailablePlatforms)

	switch {
	case validation.AvailableCount == 0:
		validation.Status = StatusNoArtifacts
	case len(validation.MissingPlatforms) > 0:
		validation.Status = StatusMissingPlatforms
	default:
		validation.Status = StatusReady
	}

	return validation
}
