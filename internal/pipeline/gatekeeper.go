package pipeline

import (
	"context"
	"strings"
)

// reasonThinResearch is the fixed disqualification reason when research is
// too thin to be worth a generation call.
const reasonThinResearch = "not enough research data found"

type gateDecision struct {
	IsQualified bool   `json:"is_qualified"`
	Reason      string `json:"reason"`
}

// gatekeep joins the accumulated research into a summary and decides
// whether the lead is worth contacting. The decision is a strict JSON
// classification; any service or parse failure fails closed (disqualify
// with an explicit error marker) so a broken collaborator can never cause
// outreach to an unvetted lead.
func (p *Pipeline) gatekeep(ctx context.Context, s State) (Update, error) {
	summary := strings.Join(s.ResearchSnippets, "\n")

	if len(summary) < p.cfg.MinResearchChars {
		p.log.Info("gatekeeper short-circuit", "company", s.Company, "research_chars", len(summary))
		return Update{
			ResearchSummary:     ptr(summary),
			IsQualified:         ptr(false),
			QualificationReason: ptr(reasonThinResearch),
		}, nil
	}

	prompt, err := render("gatekeeper", gatekeeperTemplate, gatekeeperParams{
		SenderCompany: s.SenderCompany,
		SenderProduct: s.SenderProduct,
		LeadName:      s.LeadName,
		Company:       s.Company,
		Research:      summary,
	})
	if err != nil {
		return Update{}, err
	}

	var d gateDecision
	if err := p.gen.GenerateJSON(ctx, prompt, &d); err != nil {
		p.log.Warn("gatekeeper decision failed, disqualifying", "company", s.Company, "error", err)
		return Update{
			ResearchSummary:     ptr(summary),
			IsQualified:         ptr(false),
			QualificationReason: ptr("qualification error: " + err.Error()),
		}, nil
	}

	p.log.Info("gatekeeper decision", "company", s.Company, "qualified", d.IsQualified, "reason", d.Reason)
	return Update{
		ResearchSummary:     ptr(summary),
		IsQualified:         ptr(d.IsQualified),
		QualificationReason: ptr(d.Reason),
	}, nil
}
