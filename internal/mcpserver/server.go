// Package mcpserver exposes the qualification pipeline as MCP tools over
// stdio, so editor agents can qualify a lead or draft an outreach email
// without running the batch CLI.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"prospect/internal/pipeline"
)

// RunFunc runs the full pipeline for one lead.
type RunFunc func(ctx context.Context, leadName, company string) (pipeline.State, error)

// Server wraps the MCP SDK server around the pipeline.
type Server struct {
	MCPServer *sdkmcp.Server

	run    RunFunc
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an MCP server with lead qualification and drafting tools.
func New(run RunFunc, opts ...Option) *Server {
	s := &Server{run: run}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "prospect", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "qualify_lead",
		Description: "Research a lead's company and decide whether it is worth pursuing. Returns the decision, the reason, and the research summary.",
	}, s.handleQualifyLead)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "draft_outreach",
		Description: "Run the full pipeline for a lead: research, qualification, and a reviewed cold-email draft. Disqualified leads return no draft.",
	}, s.handleDraftOutreach)
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// --- Tool input/output types ---

type leadInput struct {
	LeadName string `json:"lead_name" jsonschema:"full name of the lead"`
	Company  string `json:"company" jsonschema:"company the lead works at"`
}

type qualifyLeadOutput struct {
	IsQualified     bool   `json:"is_qualified"`
	Reason          string `json:"reason"`
	ResearchSummary string `json:"research_summary,omitempty"`
}

type draftOutreachOutput struct {
	IsQualified bool   `json:"is_qualified"`
	Reason      string `json:"reason"`
	DraftEmail  string `json:"draft_email,omitempty"`
	Iterations  int    `json:"iterations"`
}

// --- Tool handlers ---

func (s *Server) handleQualifyLead(ctx context.Context, _ *sdkmcp.CallToolRequest, input leadInput) (*sdkmcp.CallToolResult, qualifyLeadOutput, error) {
	state, err := s.runLead(ctx, "qualify_lead", input)
	if err != nil {
		return nil, qualifyLeadOutput{}, err
	}
	return nil, qualifyLeadOutput{
		IsQualified:     state.IsQualified,
		Reason:          state.QualificationReason,
		ResearchSummary: state.ResearchSummary,
	}, nil
}

func (s *Server) handleDraftOutreach(ctx context.Context, _ *sdkmcp.CallToolRequest, input leadInput) (*sdkmcp.CallToolResult, draftOutreachOutput, error) {
	state, err := s.runLead(ctx, "draft_outreach", input)
	if err != nil {
		return nil, draftOutreachOutput{}, err
	}
	return nil, draftOutreachOutput{
		IsQualified: state.IsQualified,
		Reason:      state.QualificationReason,
		DraftEmail:  state.DraftEmail,
		Iterations:  state.IterationCount,
	}, nil
}

func (s *Server) runLead(ctx context.Context, tool string, input leadInput) (pipeline.State, error) {
	if input.LeadName == "" {
		return pipeline.State{}, fmt.Errorf("%s: lead_name is required", tool)
	}
	if input.Company == "" {
		return pipeline.State{}, fmt.Errorf("%s: company is required", tool)
	}

	s.logger.Info("tool call", "tool", tool, "lead", input.LeadName, "company", input.Company)
	state, err := s.run(ctx, input.LeadName, input.Company)
	if err != nil {
		s.logger.Error("tool call failed", "tool", tool, "error", err)
		return pipeline.State{}, fmt.Errorf("%s: %w", tool, err)
	}
	return state, nil
}
