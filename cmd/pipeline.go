package cmd

import (
	"context"
	"fmt"

	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/database"
	"github.com/eidosai/eidos/utils/github"
	"github.com/eidosai/eidos/utils/models"
	"github.com/eidosai/eidos/utils/processor"
	"github.com/eidosai/eidos/utils/refimage"
	"github.com/eidosai/eidos/utils/storage"
)

// pipelineOptions selects how a processor is wired for a command
type pipelineOptions struct {
	// dryRun generates placeholder images locally and never talks to GitHub
	dryRun bool
	// outDir receives images when no GCS bucket is configured
	outDir string
	// baseURL is the public URL outDir is served under, if any
	baseURL string
}

// newPipeline builds a processor with every collaborator the configuration provides.
// The returned cleanup function must be called once the processor is no longer used.
func newPipeline(ctx context.Context, envConfig *config.EnvConfig, opts pipelineOptions) (*processor.Processor, func(), error) {
	cleanup := func() {}

	providerName := envConfig.Defaults.Provider
	if opts.dryRun {
		providerName = "mock"
	}
	provider, err := models.CreateProvider(envConfig, providerName, verbose || debug)
	if err != nil {
		return nil, cleanup, err
	}

	var uploader storage.Uploader
	if opts.dryRun {
		dir, err := storage.NewDirUploader(opts.outDir)
		if err != nil {
			return nil, cleanup, err
		}
		uploader = dir
	} else {
		uploader, err = storage.New(ctx, envConfig.Storage, opts.outDir)
		if err != nil {
			return nil, cleanup, fmt.Errorf("error creating storage: %w", err)
		}
	}
	if dir, ok := uploader.(*storage.DirUploader); ok && opts.baseURL != "" {
		dir.SetBaseURL(opts.baseURL)
	}

	proc := processor.NewProcessor(envConfig, provider, uploader, verbose || debug)

	promptConfig, err := envConfig.ResolvePromptConfig()
	if err != nil {
		return nil, cleanup, err
	}
	proc.SetPromptConfig(promptConfig)
	proc.SetReferenceCollector(refimage.NewFetcher(envConfig.GitHub.Token))

	if opts.dryRun {
		return proc, cleanup, nil
	}

	if envConfig.GitHub.Token != "" {
		proc.SetCommenter(github.NewClient(envConfig.GitHub.APIURL, envConfig.GitHub.Token))
	}

	if envConfig.Database != nil && envConfig.Database.Host != "" {
		store, err := database.Open(ctx, envConfig.Database)
		if err != nil {
			config.ActionWarning("Generation history disabled: %v", err)
			return proc, cleanup, nil
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			config.ActionWarning("Generation history disabled: %v", err)
			return proc, cleanup, nil
		}
		proc.SetHistory(store)
		cleanup = func() { store.Close() }
	}

	return proc, cleanup, nil
}
