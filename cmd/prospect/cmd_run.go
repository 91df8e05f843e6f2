package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"prospect/internal/batch"
	"prospect/internal/campaign"
	"prospect/internal/logging"
	"prospect/internal/pipeline"
	"prospect/pkg/graph"
)

var runFlags struct {
	config  string
	leads   string
	output  string
	browser bool
	trace   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Qualify every lead in the campaign CSV and draft outreach emails",
	Long: `Run loads the campaign file, reads the leads CSV, and processes each
lead through research, qualification, and drafting. Results land in the
output CSV with one row per lead; a lead that fails is recorded there and
never stops the batch.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.config, "config", "campaign.yaml", "Campaign file (YAML or JSON)")
	f.StringVar(&runFlags.leads, "leads", "", "Leads CSV path (overrides campaign leads.path)")
	f.StringVarP(&runFlags.output, "output", "o", "results.csv", "Output CSV path")
	f.BoolVar(&runFlags.browser, "browser", false, "Render company sites in headless Chrome instead of plain GET")
	f.BoolVar(&runFlags.trace, "trace", false, "Log every pipeline step transition")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := initLogging(cmd); err != nil {
		return err
	}
	logger := logging.New("run")

	cfg, err := campaign.LoadFromPath(runFlags.config)
	if err != nil {
		return err
	}
	leadsPath := cfg.Leads.Path
	if runFlags.leads != "" {
		leadsPath = runFlags.leads
	}
	if leadsPath == "" {
		return fmt.Errorf("no leads CSV: set leads.path in the campaign or pass --leads")
	}

	leads, err := batch.ReadLeads(leadsPath, cfg.Leads.NameColumn, cfg.Leads.CompanyColumn)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return fmt.Errorf("no usable leads in %s", leadsPath)
	}

	p, store, err := buildPipeline(cfg, runFlags.browser)
	if err != nil {
		return err
	}
	defer store.Close()

	var graphOpts []graph.Option
	if runFlags.trace {
		graphOpts = append(graphOpts, graph.WithObserver(&graph.LogObserver{Logger: logging.New("graph")}))
	}
	g, err := p.Build(graphOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := pipeline.Sender{
		Name:    cfg.Sender.Name,
		Company: cfg.Sender.Company,
		Product: cfg.Sender.Product,
	}
	runner := batch.NewRunner(
		func(ctx context.Context, lead batch.Lead) (pipeline.State, error) {
			return g.Run(ctx, pipeline.NewRecord(sender, lead.Name, lead.Company))
		},
		batch.WithParallel(cfg.Limits.Parallel),
		batch.WithLogger(logging.New("batch")),
	)

	logger.Info("starting batch", "leads", len(leads), "parallel", cfg.Limits.Parallel)
	results, err := runner.Run(ctx, leads)
	if err != nil {
		return err
	}

	if err := batch.WriteResults(runFlags.output, results); err != nil {
		return err
	}

	qualified := 0
	for _, r := range results {
		if r.Err == nil && r.IsQualified {
			qualified++
		}
	}
	logger.Info("batch complete", "leads", len(leads), "qualified", qualified, "output", runFlags.output)
	fmt.Printf("Processed %d leads (%d qualified) -> %s\n", len(leads), qualified, runFlags.output)
	return nil
}
