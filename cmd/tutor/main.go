// Command tutor indexes textbooks and answers questions grounded in them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/tutor/internal/adapters/driven/ai"
	"github.com/custodia-labs/tutor/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/afs"
	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tutor/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tutor/internal/adapters/driving/cli"
	"github.com/custodia-labs/tutor/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/tutor/internal/core/domain"
	"github.com/custodia-labs/tutor/internal/core/ports/driven"
	"github.com/custodia-labs/tutor/internal/core/services"
	"github.com/custodia-labs/tutor/internal/logger"
	"github.com/custodia-labs/tutor/internal/normalisers"
	"github.com/custodia-labs/tutor/internal/ranking"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	store, err := run()
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("Closing store: %v", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() (driven.ChunkStore, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := openStore(settings)
	if err != nil {
		return nil, err
	}

	svc := cli.Services{
		Settings:   settingsService,
		Index:      services.NewIndexService(store, normalisers.DefaultRegistry()),
		OpenTarget: openUploadTarget,
		HealthChecks: map[string]httpapi.HealthCheck{
			"store": storeCheck(store, settings.Store.Books),
		},
	}

	strategy, err := ranking.ByName(settings.Retrieval.Strategy)
	if err != nil {
		return store, err
	}
	retrieval := services.NewRetrievalService(store, strategy,
		services.WithCandidateLimit(settings.Retrieval.CandidateLimit),
		services.WithConcurrency(settings.Retrieval.Concurrency),
		services.WithExcerptChars(settings.Retrieval.ExcerptChars),
		services.WithChunkCap(settings.Retrieval.ChunkCap),
	)
	svc.Retrieval = retrieval
	svc.TOC = retrieval
	svc.Catalog = retrieval

	assembler := services.NewPromptAssembler(
		services.WithContextBudget(settings.Generation.ContextBudget),
		services.WithExcerpts(settings.Generation.ExcerptsOnly),
	)
	if prompts, err := file.NewPromptStore(""); err == nil {
		assembler.SetPromptStore(prompts)
	} else {
		logger.Warn("Using built-in prompt: %v", err)
	}

	gens, err := ai.CreateGenerators(settings)
	if err != nil {
		svc.AnswerErr = err
	} else {
		for _, w := range gens.Warnings {
			logger.Warn("%s", w)
		}
		opts := []services.AnswerOption{
			services.WithTimeout(settings.Generation.Timeout),
			services.WithGenerationOptions(driven.GenerateOptions{
				MaxTokens:   settings.Generation.MaxTokens,
				Temperature: settings.Generation.Temperature,
			}),
		}
		if gens.Secondary != nil {
			opts = append(opts, services.WithSecondary(gens.Secondary))
		}
		svc.Answer = services.NewAnswerService(retrieval, assembler, gens.Primary, opts...)
		if p, ok := gens.Primary.(driven.Pinger); ok {
			svc.HealthChecks["generator"] = p.Ping
		}
	}

	cli.SetVersion(version)
	cli.SetServices(svc)
	return store, cli.Execute()
}

// openStore opens the configured chunk store backend.
func openStore(settings *domain.AppSettings) (driven.ChunkStore, error) {
	chunkCap := settings.Retrieval.ChunkCap
	switch settings.Store.Backend {
	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(settings.Store.DataDir, sqlite.WithChunkCap(chunkCap))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case domain.StoreBackendMemory:
		store := memory.NewChunkStore()
		store.SetChunkCap(chunkCap)
		return store, nil
	default:
		location := settings.Store.URL
		if location == "" {
			dir, err := file.DefaultDir()
			if err != nil {
				return nil, err
			}
			location = filepath.Join(dir, "indexes")
		}
		store, err := afs.NewStore(location, afs.WithChunkCap(chunkCap))
		if err != nil {
			return nil, fmt.Errorf("opening store %s: %w", location, err)
		}
		return store, nil
	}
}

func openUploadTarget(location string) (driven.ChunkStore, error) {
	return afs.NewStore(location)
}

// storeCheck reports the store healthy when every book can be listed. A
// book that has not been indexed yet still proves the store is reachable.
func storeCheck(store driven.ChunkStore, books []string) httpapi.HealthCheck {
	return func(ctx context.Context) error {
		for _, book := range books {
			_, err := store.ListChunkIDs(ctx, book, 1)
			if err != nil && !errors.Is(err, domain.ErrUnknownCollection) && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("listing %s: %w", book, err)
			}
		}
		return nil
	}
}
