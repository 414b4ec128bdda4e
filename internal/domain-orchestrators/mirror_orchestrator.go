// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/domain/interfaces"
	"github.com/ochairo/relmirror/internal/domain/interfaces/gateways"
	"github.com/ochairo/relmirror/internal/domain/interfaces/repositories"
	"github.com/ochairo/relmirror/internal/domain/services"
)

// Resolver interface for turning a platform redirect into a version
type Resolver interface {
	Resolve(ctx context.Context, target entities.PlatformTarget) (*entities.ResolvedVersion, error)
}

// Downloader interface for fetching resolved installers
type Downloader interface {
	Download(ctx context.Context, product string, info *entities.ResolvedVersion, outputDir string) (*entities.Artifact, error)
}

// ManifestWriter interface for producing a checksum manifest of downloaded artifacts
type ManifestWriter interface {
	Write(artifacts []*entities.Artifact, outputDir string) (string, error)
}

// ManifestSigner interface for detached signatures over the manifest
type ManifestSigner interface {
	Sign(filePath string) (string, error)
}

// MirrorOrchestratorConfig holds configuration for the orchestrator
type MirrorOrchestratorConfig struct {
	Mirror entities.Config
	// Manifest is optional; when set a checksum manifest is uploaded with the artifacts
	Manifest ManifestWriter
	// Signer is optional and only used together with Manifest
	Signer ManifestSigner
}

// MirrorOrchestrator coordinates discovery, the consistency gate, the ledger
// check and fetch-and-publish for one run
type MirrorOrchestrator struct {
	cfg        entities.Config
	resolver   Resolver
	downloader Downloader
	github     gateways.GitHubGateway
	ledger     repositories.VersionLedger
	manifest   ManifestWriter
	signer     ManifestSigner
	releases   *services.ReleaseService
	logger     interfaces.Logger
	newRunID   func() string
}

// NewMirrorOrchestrator creates a new mirror orchestrator
func NewMirrorOrchestrator(
	resolver Resolver,
	downloader Downloader,
	github gateways.GitHubGateway,
	ledger repositories.VersionLedger,
	logger interfaces.Logger,
	config MirrorOrchestratorConfig,
) *MirrorOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if config.Mirror.WorkDir == "" {
		config.Mirror.WorkDir = "."
	}

	return &MirrorOrchestrator{
		cfg:        config.Mirror,
		resolver:   resolver,
		downloader: downloader,
		github:     github,
		ledger:     ledger,
		manifest:   config.Manifest,
		signer:     config.Signer,
		releases:   services.NewReleaseService(),
		logger:     logger,
		newRunID:   uuid.NewString,
	}
}

// CheckResult is the side-effect free part of a run: discovery, consistency and ledger state
type CheckResult struct {
	Platforms       []entities.PlatformReport  `json:"platforms"`
	Status          services.ConsistencyStatus `json:"status"`
	Version         string                     `json:"version,omitempty"`
	Versions        []string                   `json:"versions,omitempty"`
	AlreadyMirrored bool                       `json:"already_mirrored"`
	UpdateNeeded    bool                       `json:"update_needed"`
	Error           string                     `json:"error,omitempty"`

	resolved map[string]*entities.ResolvedVersion
	gateErr  error
}

// Check resolves every platform, applies the consistency gate and consults
// the ledger. The returned error is reserved for ledger I/O failures.
func (o *MirrorOrchestrator) Check(ctx context.Context) (*CheckResult, error) {
	return o.check(ctx, o.logger)
}

func (o *MirrorOrchestrator) check(ctx context.Context, logger interfaces.Logger) (*CheckResult, error) {
	resolved, reports := o.discover(ctx, logger)

	consistency := services.CheckConsistency(resolved)
	result := &CheckResult{
		Platforms: reports,
		Status:    consistency.Status,
		Version:   consistency.Version,
		Versions:  consistency.Versions,
		resolved:  resolved,
		gateErr:   consistency.Err(),
	}
	if result.gateErr != nil {
		result.Error = result.gateErr.Error()
		return result, nil
	}

	mirrored, err := o.ledger.Contains(ctx, consistency.Version)
	if err != nil {
		return result, entities.LedgerError("check ledger", err)
	}
	result.AlreadyMirrored = mirrored
	result.UpdateNeeded = !mirrored
	return result, nil
}

// discover resolves each configured target in order; failed platforms are
// reported and excluded from the run
func (o *MirrorOrchestrator) discover(ctx context.Context, logger interfaces.Logger) (map[string]*entities.ResolvedVersion, []entities.PlatformReport) {
	resolved := make(map[string]*entities.ResolvedVersion, len(o.cfg.Targets))
	reports := make([]entities.PlatformReport, 0, len(o.cfg.Targets))
	names := make(services.FilenameSet, len(o.cfg.Targets))

	for _, target := range o.cfg.Targets {
		info, err := o.resolver.Resolve(ctx, target)
		if err == nil {
			if claimErr := names.Claim(o.cfg.Product, info); claimErr != nil {
				err = entities.ParseError(target.Name, "reserve filename", claimErr)
			}
		}
		if err != nil {
			logger.Warn("skipping platform",
				interfaces.F("platform", target.Name),
				interfaces.F("error", err))
			reports = append(reports, entities.PlatformReport{Platform: target.Name, Error: err.Error()})
			continue
		}

		logger.Info("resolved platform",
			interfaces.F("platform", target.Name),
			interfaces.F("version", info.Version),
			interfaces.F("filename", info.Filename))
		resolved[target.Name] = info
		reports = append(reports, entities.PlatformReport{
			Platform: target.Name,
			Version:  info.Version,
			Filename: info.Filename,
			URL:      info.ResolvedURL,
		})
	}

	return resolved, reports
}

// Run executes the complete mirror workflow. With dryRun the run stops after
// the ledger check. The returned error is reserved for failures that need
// operator attention (ledger I/O); stage outcomes are reported on the result.
func (o *MirrorOrchestrator) Run(ctx context.Context, dryRun bool) (*entities.MirrorResult, error) {
	startTime := time.Now()
	result := &entities.MirrorResult{RunID: o.newRunID()}
	logger := o.logger.With(interfaces.F("run_id", result.RunID))
	defer func() { result.TotalDuration = time.Since(startTime) }()

	// Step 1-3: Discovery, consistency gate, ledger check
	check, err := o.check(ctx, logger)
	result.Platforms = check.Platforms
	result.Version = check.Version
	if err != nil {
		result.Err = err
		logger.Error("ledger check failed", interfaces.F("error", err))
		return result, err
	}

	switch check.Status {
	case services.StatusNoData:
		result.Outcome = entities.OutcomeNoData
		result.Err = check.gateErr
		logger.Warn("no platform resolved, aborting run")
		return result, nil
	case services.StatusInconsistent:
		result.Outcome = entities.OutcomeInconsistent
		result.Err = check.gateErr
		logger.Warn("inconsistent versions across platforms, aborting run",
			interfaces.F("versions", check.Versions))
		return result, nil
	}

	logger = logger.With(interfaces.F("version", check.Version))
	logger.Info("all platforms agree on version")

	if check.AlreadyMirrored {
		result.Outcome = entities.OutcomeAlreadyMirrored
		logger.Info("version already mirrored, nothing to do")
		return result, nil
	}

	if dryRun {
		result.Outcome = entities.OutcomeDryRun
		logger.Info("dry run: version would be mirrored")
		return result, nil
	}

	// Every local file created from here on is removed before returning
	var localFiles []string
	defer func() { o.cleanup(logger, localFiles) }()

	// Step 4: Fetch
	downloadStart := time.Now()
	artifacts, err := o.fetch(ctx, logger, check)
	result.Artifacts = artifacts
	for _, a := range artifacts {
		localFiles = append(localFiles, a.Path)
	}
	result.DownloadDuration = time.Since(downloadStart)
	if err != nil {
		result.Outcome = entities.OutcomeDownloadFailed
		result.Err = err
		logger.Error("download stage failed", interfaces.F("error", err))
		return result, nil
	}

	uploads := append([]string(nil), localFiles...)
	extra, err := o.writeManifest(logger, artifacts)
	localFiles = append(localFiles, extra...)
	if err != nil {
		result.Outcome = entities.OutcomePublishFailed
		result.Err = err
		logger.Error("checksum manifest failed", interfaces.F("error", err))
		return result, nil
	}
	uploads = append(uploads, extra...)

	// Step 5: Publish
	publishStart := time.Now()
	release, assets, err := o.publish(ctx, logger, check.Version, uploads)
	result.PublishDuration = time.Since(publishStart)
	result.Assets = assets
	if release != nil {
		result.ReleaseURL = release.HTMLURL
	}

	// Step 6: Record
	switch {
	case errors.Is(err, entities.ErrReleaseExists):
		result.Outcome = entities.OutcomeReleaseExists
		if !o.cfg.ReconcileExistingRelease {
			logger.Warn("release already exists, ledger left unchanged", interfaces.F("tag", entities.TagName(check.Version)))
			return result, nil
		}
		logger.Info("release already exists, recording version in ledger", interfaces.F("tag", entities.TagName(check.Version)))
	case err != nil:
		result.Outcome = entities.OutcomePublishFailed
		result.Err = err
		logger.Error("publish failed", interfaces.F("error", err))
		return result, nil
	default:
		result.Outcome = entities.OutcomePublished
		logger.Info("release published",
			interfaces.F("tag", entities.TagName(check.Version)),
			interfaces.F("assets", len(assets)))
	}

	if err := o.ledger.Add(ctx, check.Version); err != nil {
		result.Err = entities.LedgerError("record version", err)
		logger.Error("failed to record version", interfaces.F("error", err))
		return result, result.Err
	}
	result.Recorded = true
	return result, nil
}

// fetch downloads every resolved platform in configuration order. At least
// one download must succeed; RequireAllPlatforms demands every configured target.
func (o *MirrorOrchestrator) fetch(ctx context.Context, logger interfaces.Logger, check *CheckResult) ([]*entities.Artifact, error) {
	var artifacts []*entities.Artifact
	var failures []error

	for _, target := range o.cfg.Targets {
		info, ok := check.resolved[target.Name]
		if !ok {
			continue
		}

		logger.Info("downloading", interfaces.F("platform", target.Name), interfaces.F("url", info.ResolvedURL))
		artifact, err := o.downloader.Download(ctx, o.cfg.Product, info, o.cfg.WorkDir)
		if err != nil {
			logger.Warn("download failed", interfaces.F("platform", target.Name), interfaces.F("error", err))
			failures = append(failures, err)
			continue
		}

		logger.Info("downloaded",
			interfaces.F("platform", target.Name),
			interfaces.F("path", artifact.Path),
			interfaces.F("bytes", artifact.Size))
		artifacts = append(artifacts, artifact)
	}

	validation := o.releases.ValidateRelease(o.cfg.Targets, artifacts)
	switch validation.Status {
	case services.StatusNoArtifacts:
		return nil, errors.Join(append([]error{entities.ErrAllDownloadsFailed}, failures...)...)
	case services.StatusMissingPlatforms:
		if o.cfg.RequireAllPlatforms {
			return artifacts, fmt.Errorf("%w: %s", entities.ErrMissingPlatforms, validation.ErrorMessage())
		}
		logger.Warn("publishing partial release",
			interfaces.F("missing", validation.MissingPlatforms),
			interfaces.F("available", validation.AvailableCount))
	}

	return artifacts, nil
}

// writeManifest produces the optional checksum manifest and signature and
// returns the files it created
func (o *MirrorOrchestrator) writeManifest(logger interfaces.Logger, artifacts []*entities.Artifact) ([]string, error) {
	if o.manifest == nil {
		return nil, nil
	}

	manifestPath, err := o.manifest.Write(artifacts, o.cfg.WorkDir)
	if err != nil {
		return nil, entities.PublishError("write checksum manifest", err)
	}
	files := []string{manifestPath}
	logger.Info("checksum manifest written", interfaces.F("path", manifestPath))

	if o.signer == nil {
		return files, nil
	}

	sigPath, err := o.signer.Sign(manifestPath)
	if err != nil {
		return files, entities.PublishError("sign checksum manifest", err)
	}
	logger.Info("checksum manifest signed", interfaces.F("path", sigPath))
	return append(files, sigPath), nil
}

// publish creates the release for version and uploads files. An existing
// release with the same tag yields ErrReleaseExists and nothing is uploaded.
// No rollback is attempted when an upload fails.
func (o *MirrorOrchestrator) publish(ctx context.Context, logger interfaces.Logger, version string, files []string) (*gateways.GitHubRelease, []string, error) {
	tag := entities.TagName(version)

	releases, err := o.github.ListReleases(ctx, o.cfg.Owner, o.cfg.Repo)
	if err != nil {
		return nil, nil, entities.PublishError("list releases", err)
	}
	for _, r := range releases {
		if r.TagName == tag {
			return r, nil, entities.ErrReleaseExists
		}
	}

	release, err := o.github.CreateRelease(ctx, o.cfg.Owner, o.cfg.Repo, &gateways.GitHubRelease{
		TagName:    tag,
		Name:       o.cfg.ReleaseTitle(version),
		Body:       o.cfg.ReleaseBody(version),
		Draft:      false,
		Prerelease: false,
	})
	if err != nil {
		return nil, nil, entities.PublishError("create release", err)
	}
	logger.Info("release created", interfaces.F("tag", tag), interfaces.F("url", release.HTMLURL))

	var uploaded []string
	for _, path := range files {
		name := filepath.Base(path)
		if err := o.uploadFile(ctx, release.UploadURL, path); err != nil {
			return release, uploaded, entities.PublishError("upload asset "+name, err)
		}
		logger.Info("uploaded asset", interfaces.F("name", name))
		uploaded = append(uploaded, name)
	}

	return release, uploaded, nil
}

func (o *MirrorOrchestrator) uploadFile(ctx context.Context, uploadURL, path string) error {
	//nolint:gosec // G304: path is a file created by this run
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	_, err = o.github.UploadAsset(ctx, uploadURL, filepath.Base(path), f, info.Size())
	return err
}

// cleanup removes every local file created by the run
func (o *MirrorOrchestrator) cleanup(logger interfaces.Logger, files []string) {
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove local file", interfaces.F("path", path), interfaces.F("error", err))
			continue
		}
		logger.Debug("removed local file", interfaces.F("path", path))
	}
}
