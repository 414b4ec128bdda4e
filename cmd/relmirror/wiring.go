package main

import (
	"github.com/ochairo/relmirror/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/relmirror/internal/domain-orchestrators"
	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/domain/interfaces"
	"github.com/ochairo/relmirror/internal/domain/services"
	"github.com/ochairo/relmirror/internal/external-adapters/jsonfile"
)

// newOrchestrator wires the production adapters for cfg
func newOrchestrator(cfg entities.Config, logger interfaces.Logger) (*orchestrators.MirrorOrchestrator, error) {
	parser, err := services.NewFilenameParser(cfg.Product, cfg.Extensions)
	if err != nil {
		return nil, err
	}

	resolver := gateways.NewRedirectResolver(parser, cfg.ResolveTimeout)
	downloader := gateways.NewDownloader(cfg.DownloadTimeout)
	github := gateways.NewHTTPGitHubGateway(gateways.GitHubGatewayConfig{
		Token:      cfg.Token,
		APIURL:     cfg.GitHub.APIURL,
		MaxRetries: cfg.GitHub.MaxRetries,
		Logger:     logger.With(interfaces.F("component", "github")),
	})
	ledger := jsonfile.NewVersionLedger(cfg.LedgerPath, logger.With(interfaces.F("component", "ledger")))

	orchCfg := orchestrators.MirrorOrchestratorConfig{Mirror: cfg}
	if cfg.Checksums.Enabled {
		orchCfg.Manifest = gateways.NewChecksumManifest()
		if cfg.Checksums.SigningKeyPath != "" {
			signer, err := gateways.NewGPGSigner(cfg.Checksums.SigningKeyPath, []byte(cfg.Checksums.Passphrase))
			if err != nil {
				return nil, err
			}
			logger.Info("checksum manifest signing enabled", interfaces.F("fingerprint", signer.Fingerprint()))
			orchCfg.Signer = signer
		}
	}

	return orchestrators.NewMirrorOrchestrator(resolver, downloader, github, ledger, logger, orchCfg), nil
}
