package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"prospect/internal/pipeline"
)

func fixedRun(state pipeline.State, err error) RunFunc {
	return func(ctx context.Context, leadName, company string) (pipeline.State, error) {
		return state, err
	}
}

func TestQualifyLead(t *testing.T) {
	state := pipeline.State{
		IsQualified:         true,
		QualificationReason: "recent funding and hiring",
		ResearchSummary:     "Acme raised $10M",
	}
	s := New(fixedRun(state, nil))

	_, out, err := s.handleQualifyLead(context.Background(), nil, leadInput{
		LeadName: "Ada Lovelace",
		Company:  "Acme",
	})
	if err != nil {
		t.Fatalf("handleQualifyLead: %v", err)
	}
	if !out.IsQualified || out.Reason != "recent funding and hiring" {
		t.Errorf("output = %+v", out)
	}
	if out.ResearchSummary != "Acme raised $10M" {
		t.Errorf("research summary = %q", out.ResearchSummary)
	}
}

func TestDraftOutreach(t *testing.T) {
	state := pipeline.State{
		IsQualified:         true,
		QualificationReason: "good fit",
		DraftEmail:          "Hi Ada, congrats on the raise.",
		IterationCount:      1,
	}
	s := New(fixedRun(state, nil))

	_, out, err := s.handleDraftOutreach(context.Background(), nil, leadInput{
		LeadName: "Ada Lovelace",
		Company:  "Acme",
	})
	if err != nil {
		t.Fatalf("handleDraftOutreach: %v", err)
	}
	if out.DraftEmail != "Hi Ada, congrats on the raise." || out.Iterations != 1 {
		t.Errorf("output = %+v", out)
	}
}

func TestDraftOutreach_DisqualifiedHasNoDraft(t *testing.T) {
	state := pipeline.State{
		IsQualified:         false,
		QualificationReason: "not enough research data found",
	}
	s := New(fixedRun(state, nil))

	_, out, err := s.handleDraftOutreach(context.Background(), nil, leadInput{
		LeadName: "Ada Lovelace",
		Company:  "Obscure LLC",
	})
	if err != nil {
		t.Fatalf("handleDraftOutreach: %v", err)
	}
	if out.IsQualified || out.DraftEmail != "" {
		t.Errorf("output = %+v", out)
	}
}

func TestInputValidation(t *testing.T) {
	s := New(fixedRun(pipeline.State{}, nil))

	if _, _, err := s.handleQualifyLead(context.Background(), nil, leadInput{Company: "Acme"}); err == nil {
		t.Error("want error for missing lead_name")
	}
	if _, _, err := s.handleQualifyLead(context.Background(), nil, leadInput{LeadName: "Ada"}); err == nil {
		t.Error("want error for missing company")
	}
}

func TestRunError(t *testing.T) {
	s := New(fixedRun(pipeline.State{}, errors.New("llm unreachable")))

	_, _, err := s.handleDraftOutreach(context.Background(), nil, leadInput{
		LeadName: "Ada",
		Company:  "Acme",
	})
	if err == nil || !strings.Contains(err.Error(), "llm unreachable") {
		t.Errorf("err = %v", err)
	}
}
