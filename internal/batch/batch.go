// Package batch drives the qualification pipeline over a CSV of leads and
// writes a CSV of results. One bad lead never stops the batch: its failure
// is recorded in the output row and the run moves on.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"

	"prospect/internal/pipeline"
)

// ErrColumnMissing reports a leads CSV without the configured name or
// company column.
var ErrColumnMissing = errors.New("required column missing")

// Lead is one row of the input CSV.
type Lead struct {
	Name    string
	Company string
}

// Result is the pipeline outcome for one lead.
type Result struct {
	Lead        Lead
	IsQualified bool
	Reason      string
	DraftEmail  string
	Err         error
}

// ReadLeads parses the CSV at path, locating the name and company columns
// by header. Rows with an empty name or company are skipped.
func ReadLeads(path, nameColumn, companyColumn string) ([]Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open leads: %w", err)
	}
	defer f.Close()
	return readLeads(f, nameColumn, companyColumn)
}

func readLeads(r io.Reader, nameColumn, companyColumn string) ([]Lead, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read leads header: %w", err)
	}
	nameIdx, companyIdx := -1, -1
	for i, col := range header {
		switch col {
		case nameColumn:
			nameIdx = i
		case companyColumn:
			companyIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, nameColumn)
	}
	if companyIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, companyColumn)
	}

	var leads []Lead
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read leads row: %w", err)
		}
		if nameIdx >= len(row) || companyIdx >= len(row) {
			continue
		}
		lead := Lead{Name: row[nameIdx], Company: row[companyIdx]}
		if lead.Name == "" || lead.Company == "" {
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// WriteResults writes the batch outcome as CSV. Failed leads get a
// disqualified row carrying the error text so the output always has one
// row per lead.
func WriteResults(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	defer f.Close()
	return writeResults(f, results)
}

func writeResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "company", "qualified", "reason", "draft_email"}); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}
	for _, res := range results {
		reason := res.Reason
		if res.Err != nil {
			reason = fmt.Sprintf("pipeline error: %v", res.Err)
		}
		row := []string{
			res.Lead.Name,
			res.Lead.Company,
			strconv.FormatBool(res.IsQualified),
			reason,
			res.DraftEmail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write results row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

// RunFunc runs the pipeline for one lead.
type RunFunc func(ctx context.Context, lead Lead) (pipeline.State, error)

// Runner executes a batch of leads with bounded parallelism.
type Runner struct {
	run      RunFunc
	parallel int
	logger   *slog.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithParallel bounds how many leads run concurrently. Default 1
// (sequential).
func WithParallel(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a batch runner around a per-lead run function.
func NewRunner(run RunFunc, opts ...RunnerOption) *Runner {
	r := &Runner{run: run, parallel: 1}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run processes every lead and returns one Result per lead, in input
// order. Per-lead failures land in Result.Err; Run itself only fails when
// the context is canceled.
func (r *Runner) Run(ctx context.Context, leads []Lead) ([]Result, error) {
	results := make([]Result, len(leads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, lead := range leads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Lead: lead, Err: err}
				return err
			}
			r.logger.Info("processing lead", "name", lead.Name, "company", lead.Company)
			state, err := r.run(gctx, lead)
			if err != nil {
				r.logger.Error("lead failed", "name", lead.Name, "error", err)
				results[i] = Result{Lead: lead, Err: err}
				return nil
			}
			res := Result{Lead: lead, IsQualified: state.IsQualified}
			res.Reason = state.QualificationReason
			res.DraftEmail = state.DraftEmail
			results[i] = res
			r.logger.Info("lead done", "name", lead.Name, "qualified", res.IsQualified)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
