package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prospect/internal/campaign"
	"prospect/internal/knowledge"
	"prospect/internal/logging"
)

var ingestFlags struct {
	config string
	seed   string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed case studies into the knowledge base",
	Long: `Ingest embeds case studies and stores them in the campaign's knowledge
DB. With --seed it reads a YAML file of case studies; otherwise it loads the
built-in corpus. Documents are appended to whatever is already stored.`,
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.config, "config", "campaign.yaml", "Campaign file (YAML or JSON)")
	f.StringVar(&ingestFlags.seed, "seed", "", "Seed YAML with case studies (default: built-in corpus)")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if err := initLogging(cmd); err != nil {
		return err
	}

	cfg, err := campaign.LoadFromPath(ingestFlags.config)
	if err != nil {
		return err
	}
	if ingestFlags.seed != "" {
		cfg.Knowledge.SeedPath = ingestFlags.seed
	}

	gen, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	docs, err := seedDocs(cfg)
	if err != nil {
		return err
	}

	store, err := knowledge.Open(cfg.Knowledge.DBPath, gen,
		knowledge.WithLogger(logging.New("knowledge")),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.Ingest(ctx, docs); err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d case studies (%d total) -> %s\n", len(docs), total, cfg.Knowledge.DBPath)
	return nil
}
