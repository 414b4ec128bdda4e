package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a workflow failure by the stage that produced it
type ErrorKind string

// Error kinds reported by the mirror workflow
const (
	KindNetwork     ErrorKind = "network"
	KindParse       ErrorKind = "parse"
	KindConsistency ErrorKind = "consistency"
	KindPublish     ErrorKind = "publish"
	KindLedger      ErrorKind = "ledger"
)

// Sentinel errors for whole-run outcomes
var (
	ErrNoData               = errors.New("no data")
	ErrInconsistentVersions = errors.New("inconsistent versions")
	ErrReleaseExists        = errors.New("release already exists")
	ErrAllDownloadsFailed   = errors.New("all downloads failed")
	ErrMissingPlatforms     = errors.New("not all platforms downloaded")
	ErrNoMatch              = errors.New("url does not match expected filename pattern")
	ErrDuplicateFilename    = errors.New("local filename already used by another platform")
)

// MirrorError is a failure of one workflow stage, optionally scoped to a platform
type MirrorError struct {
	Kind     ErrorKind
	Platform string
	Op       string
	Err      error
}

func (e *MirrorError) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Kind, e.Op, e.Platform, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the next scheduled run may succeed without intervention
func (e *MirrorError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindPublish
}

// NetworkError wraps a transport failure for a platform
func NetworkError(platform, op string, err error) error {
	return &MirrorError{Kind: KindNetwork, Platform: platform, Op: op, Err: err}
}

// ParseError wraps a filename parse failure for a platform
func ParseError(platform, op string, err error) error {
	return &MirrorError{Kind: KindParse, Platform: platform, Op: op, Err: err}
}

// ConsistencyError wraps a consistency gate failure
func ConsistencyError(err error) error {
	return &MirrorError{Kind: KindConsistency, Op: "check consistency", Err: err}
}

// PublishError wraps a release API failure
func PublishError(op string, err error) error {
	return &MirrorError{Kind: KindPublish, Op: op, Err: err}
}

// LedgerError wraps a ledger persistence failure
func LedgerError(op string, err error) error {
	return &MirrorError{Kind: KindLedger, Op: op, Err: err}
}

// IsKind reports whether err is a MirrorError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var me *MirrorError
	return errors.As(err, &me) && me.Kind == kind
}

// IsRetryable reports whether err carries a MirrorError that the next
// scheduled run may clear on its own
func IsRetryable(err error) bool {
	var me *MirrorError
	return errors.As(err, &me) && me.Retryable()
}
