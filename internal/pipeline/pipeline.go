package pipeline

import (
	"context"
	"io"
	"log/slog"
)

// Collaborator contracts consumed by the steps. Implementations live in
// internal/search, internal/fetch, internal/llm, and internal/knowledge;
// tests substitute in-memory fakes.

// Searcher returns text snippets for a web query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Fetcher returns bounded plain text for a URL. It never fails: fetch
// problems come back as an explanatory string so partial research cannot
// halt a run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Generator is the text-generation collaborator. GenerateJSON renders the
// model output into out and wraps llm.ErrParse when it is not valid JSON.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// Retriever returns the contents of the top-k knowledge documents for a
// similarity query. An empty result is not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Sender identifies the outreach campaign's sender, supplied once per batch.
type Sender struct {
	Name    string
	Company string
	Product string
}

// Config tunes the pipeline steps.
type Config struct {
	// MaxIterations caps the reviewer's revision requests. The drafter runs
	// at most MaxIterations+1 times per lead.
	MaxIterations int

	// MinResearchChars is the gatekeeper short-circuit: research shorter
	// than this disqualifies without a generation call.
	MinResearchChars int

	// CreativeTemperature is used for email drafting; structured decisions
	// always run at temperature zero.
	CreativeTemperature float64

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 1
	}
	if c.MinResearchChars <= 0 {
		c.MinResearchChars = 50
	}
	if c.CreativeTemperature <= 0 {
		c.CreativeTemperature = 0.7
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Pipeline owns the step units and their collaborators.
type Pipeline struct {
	search Searcher
	fetch  Fetcher
	gen    Generator
	know   Retriever
	cfg    Config
	log    *slog.Logger
}

// New assembles a Pipeline. All collaborators are required; pass fakes in
// tests rather than nil.
func New(search Searcher, fetch Fetcher, gen Generator, know Retriever, cfg Config) *Pipeline {
	cfg.setDefaults()
	return &Pipeline{
		search: search,
		fetch:  fetch,
		gen:    gen,
		know:   know,
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

// NewRecord builds the initial record for one lead. Every other field
// starts at its documented zero default.
func NewRecord(sender Sender, leadName, company string) State {
	return State{
		SenderName:    sender.Name,
		SenderCompany: sender.Company,
		SenderProduct: sender.Product,
		LeadName:      leadName,
		Company:       company,
	}
}
