package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// ConsistencyStatus represents the result of comparing resolved versions across platforms
type ConsistencyStatus string

// Consistency gate statuses
const (
	StatusConsistent   ConsistencyStatus = "consistent"
	StatusNoData       ConsistencyStatus = "no_data"
	StatusInconsistent ConsistencyStatus = "inconsistent"
)

// ConsistencyReport contains the outcome of the consistency gate
type ConsistencyReport struct {
	Status ConsistencyStatus
	// Version is the single agreed version when Status is StatusConsistent
	Version string
	// Versions lists the distinct versions seen, sorted
	Versions []string
	// ByVersion maps each distinct version to the platforms reporting it
	ByVersion map[string][]string
}

// IsConsistent returns true if every resolved platform reports the same version
func (r *ConsistencyReport) IsConsistent() bool {
	return r.Status == StatusConsistent
}

// Err returns a ConsistencyError describing why the gate failed, or nil
func (r *ConsistencyReport) Err() error {
	switch r.Status {
	case StatusConsistent:
		return nil
	case StatusNoData:
		return entities.ConsistencyError(entities.ErrNoData)
	case StatusInconsistent:
		return entities.ConsistencyError(fmt.Errorf("%w: %s", entities.ErrInconsistentVersions, r.describe()))
	default:
		return entities.ConsistencyError(fmt.Errorf("unknown status %q", r.Status))
	}
}

func (r *ConsistencyReport) describe() string {
	parts := make([]string, 0, len(r.Versions))
	for _, v := range r.Versions {
		parts = append(parts, fmt.Sprintf("%s=[%s]", v, strings.Join(r.ByVersion[v], ",")))
	}
	return strings.Join(parts, " ")
}

// CheckConsistency collects the distinct versions across resolved platforms.
// A release is only ever published from a single agreed upstream version.
func CheckConsistency(resolved map[string]*entities.ResolvedVersion) *ConsistencyReport {
	report := &ConsistencyReport{ByVersion: make(map[string][]string)}

	for platform, info := range resolved {
		if info == nil {
			continue
		}
		report.ByVersion[info.Version] = append(report.ByVersion[info.Version], platform)
	}

	for version, platforms := range report.ByVersion {
		sort.Strings(platforms)
		report.Versions = append(report.Versions, version)
	}
	SortVersions(report.Versions)

	switch len(report.Versions) {
	case 0:
		report.Status = StatusNoData
	case 1:
		report.Status = StatusConsistent
		report.Version = report.Versions[0]
	default:
		report.Status = StatusInconsistent
	}

	return report
}
