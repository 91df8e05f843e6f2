package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prospect/internal/campaign"
	"prospect/internal/fetch"
	"prospect/internal/knowledge"
	"prospect/internal/llm"
	"prospect/internal/logging"
	"prospect/internal/pipeline"
	"prospect/internal/search"
)

// API keys come from the environment, never from campaign files.
const (
	envLLMKey    = "PROSPECT_LLM_API_KEY"
	envSearchKey = "PROSPECT_SEARCH_API_KEY"
)

// initLogging applies the persistent log flags to the global slog default.
func initLogging(cmd *cobra.Command) error {
	levelStr, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return err
	}
	logging.Init(level, format)
	return nil
}

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	return v, nil
}

// newLLMClient builds the generation client from the campaign model config.
func newLLMClient(cfg *campaign.Config) (*llm.Client, error) {
	key, err := requireEnv(envLLMKey)
	if err != nil {
		return nil, err
	}
	return llm.New(cfg.Models.BaseURL, key,
		llm.WithModel(cfg.Models.Model),
		llm.WithEmbeddingModel(cfg.Models.EmbeddingModel),
		llm.WithLogger(logging.New("llm")),
	)
}

// openKnowledge opens the case-study store, seeding it on first use so a
// fresh checkout can run without an explicit ingest.
func openKnowledge(ctx context.Context, cfg *campaign.Config, embedder knowledge.Embedder) (*knowledge.Store, error) {
	store, err := knowledge.Open(cfg.Knowledge.DBPath, embedder,
		knowledge.WithLogger(logging.New("knowledge")),
	)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if n == 0 {
		docs, err := seedDocs(cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := store.Ingest(ctx, docs); err != nil {
			store.Close()
			return nil, fmt.Errorf("seed knowledge base: %w", err)
		}
	}
	return store, nil
}

func seedDocs(cfg *campaign.Config) ([]knowledge.Document, error) {
	if cfg.Knowledge.SeedPath != "" {
		return knowledge.LoadSeed(cfg.Knowledge.SeedPath)
	}
	return knowledge.DefaultSeed(), nil
}

// buildPipeline wires every collaborator from the campaign config.
func buildPipeline(cfg *campaign.Config, useBrowser bool) (*pipeline.Pipeline, *knowledge.Store, error) {
	gen, err := newLLMClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	searchKey, err := requireEnv(envSearchKey)
	if err != nil {
		return nil, nil, err
	}
	searcher, err := search.New(searchKey,
		search.WithMaxResults(cfg.Limits.SearchMaxResults),
		search.WithLogger(logging.New("search")),
	)
	if err != nil {
		return nil, nil, err
	}

	var fetcher pipeline.Fetcher
	fetchOpts := []fetch.Option{
		fetch.WithCharBudget(cfg.Limits.FetchCharBudget),
		fetch.WithLogger(logging.New("fetch")),
	}
	if useBrowser {
		fetcher = fetch.NewBrowserFetcher(fetchOpts...)
	} else {
		fetcher = fetch.NewHTTPFetcher(fetchOpts...)
	}

	store, err := openKnowledge(context.Background(), cfg, gen)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(searcher, fetcher, gen, store, pipeline.Config{
		MaxIterations:       cfg.Limits.MaxIterations,
		MinResearchChars:    cfg.Limits.MinResearchChars,
		CreativeTemperature: cfg.Models.CreativeTemperature,
		Logger:              logging.New("pipeline"),
	})
	return p, store, nil
}
