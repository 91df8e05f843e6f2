package batch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"prospect/internal/pipeline"
)

func TestReadLeads(t *testing.T) {
	csvData := `id,name,company
1,Ada Lovelace,Acme
2,,NoName Inc
3,Grace Hopper,Globex
4,Blank Co,
`
	leads, err := readLeads(strings.NewReader(csvData), "name", "company")
	if err != nil {
		t.Fatalf("readLeads: %v", err)
	}

	want := []Lead{
		{Name: "Ada Lovelace", Company: "Acme"},
		{Name: "Grace Hopper", Company: "Globex"},
	}
	if diff := cmp.Diff(want, leads); diff != "" {
		t.Errorf("leads mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLeads_CustomColumns(t *testing.T) {
	csvData := "full_name,employer\nAda Lovelace,Acme\n"
	leads, err := readLeads(strings.NewReader(csvData), "full_name", "employer")
	if err != nil {
		t.Fatalf("readLeads: %v", err)
	}
	if len(leads) != 1 || leads[0].Company != "Acme" {
		t.Errorf("leads = %+v", leads)
	}
}

func TestReadLeads_MissingColumn(t *testing.T) {
	csvData := "name,title\nAda,CTO\n"
	_, err := readLeads(strings.NewReader(csvData), "name", "company")
	if !errors.Is(err, ErrColumnMissing) {
		t.Errorf("err = %v, want ErrColumnMissing", err)
	}
}

func TestWriteResults(t *testing.T) {
	results := []Result{
		{
			Lead:        Lead{Name: "Ada Lovelace", Company: "Acme"},
			IsQualified: true,
			Reason:      "recent funding round",
			DraftEmail:  "Hi Ada, congrats on the raise.",
		},
		{
			Lead: Lead{Name: "Grace Hopper", Company: "Globex"},
			Err:  errors.New("llm unreachable"),
		},
	}

	var buf bytes.Buffer
	if err := writeResults(&buf, results); err != nil {
		t.Fatalf("writeResults: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "name,company,qualified,reason,draft_email") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "Ada Lovelace,Acme,true,recent funding round") {
		t.Errorf("missing qualified row: %q", out)
	}
	if !strings.Contains(out, "pipeline error: llm unreachable") {
		t.Errorf("missing error marker row: %q", out)
	}
}

func TestRunner_FaultIsolation(t *testing.T) {
	run := func(ctx context.Context, lead Lead) (pipeline.State, error) {
		if lead.Company == "Broken" {
			return pipeline.State{}, errors.New("boom")
		}
		return pipeline.State{
			IsQualified:         true,
			QualificationReason: "looks good",
			DraftEmail:          "Hi " + lead.Name,
		}, nil
	}

	leads := []Lead{
		{Name: "Ada", Company: "Acme"},
		{Name: "Bob", Company: "Broken"},
		{Name: "Cleo", Company: "Globex"},
	}
	results, err := NewRunner(run).Run(context.Background(), leads)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].Err != nil || !results[0].IsQualified {
		t.Errorf("lead 0 = %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("lead 1 error not recorded")
	}
	if results[2].Err != nil || results[2].DraftEmail != "Hi Cleo" {
		t.Errorf("lead 2 = %+v", results[2])
	}
}

func TestRunner_ParallelKeepsOrder(t *testing.T) {
	run := func(ctx context.Context, lead Lead) (pipeline.State, error) {
		return pipeline.State{DraftEmail: "Hi " + lead.Name}, nil
	}

	leads := []Lead{
		{Name: "Ada", Company: "A"},
		{Name: "Bob", Company: "B"},
		{Name: "Cleo", Company: "C"},
		{Name: "Dan", Company: "D"},
	}
	results, err := NewRunner(run, WithParallel(4)).Run(context.Background(), leads)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, lead := range leads {
		if results[i].Lead != lead {
			t.Errorf("result %d = %+v, want lead %+v", i, results[i].Lead, lead)
		}
	}
}

func TestRunner_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := func(ctx context.Context, lead Lead) (pipeline.State, error) {
		return pipeline.State{}, nil
	}
	_, err := NewRunner(run).Run(ctx, []Lead{{Name: "Ada", Company: "Acme"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
