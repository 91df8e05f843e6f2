package main

import (
	"context"

	"github.com/spf13/cobra"

	"prospect/internal/campaign"
	"prospect/internal/logging"
	"prospect/internal/mcpserver"
	"prospect/internal/pipeline"
)

var serveFlags struct {
	config  string
	browser bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing qualify_lead and
draft_outreach, so editor agents can run the pipeline for a single lead.

The server monitors for parent process death and self-terminates when the
client disconnects, preventing zombie processes.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.config, "config", "campaign.yaml", "Campaign file (YAML or JSON)")
	f.BoolVar(&serveFlags.browser, "browser", false, "Render company sites in headless Chrome instead of plain GET")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initLogging(cmd); err != nil {
		return err
	}

	cfg, err := campaign.LoadFromPath(serveFlags.config)
	if err != nil {
		return err
	}

	p, store, err := buildPipeline(cfg, serveFlags.browser)
	if err != nil {
		return err
	}
	defer store.Close()

	g, err := p.Build()
	if err != nil {
		return err
	}

	sender := pipeline.Sender{
		Name:    cfg.Sender.Name,
		Company: cfg.Sender.Company,
		Product: cfg.Sender.Product,
	}
	srv := mcpserver.New(
		func(ctx context.Context, leadName, company string) (pipeline.State, error) {
			return g.Run(ctx, pipeline.NewRecord(sender, leadName, company))
		},
		mcpserver.WithLogger(logging.New("mcp")),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting prospect MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx)
}
