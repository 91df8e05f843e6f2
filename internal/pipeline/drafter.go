package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// fallbackProofPoint is used when the knowledge store has nothing relevant.
// Drafting never fails on an empty retrieval.
const fallbackProofPoint = "We have helped similar companies scale."

// draft writes the outreach email from the research summary, the
// best-matching proof point, and any critique feedback from a prior
// review round.
func (p *Pipeline) draft(ctx context.Context, s State) (Update, error) {
	proof := p.retrieveProof(ctx, s)

	prompt, err := render("drafter", drafterTemplate, drafterParams{
		SenderName:    s.SenderName,
		SenderCompany: s.SenderCompany,
		SenderProduct: s.SenderProduct,
		LeadName:      s.LeadName,
		Company:       s.Company,
		Research:      s.ResearchSummary,
		ProofPoint:    proof,
		PreviousDraft: s.DraftEmail,
		Feedback:      s.CritiqueFeedback,
	})
	if err != nil {
		return Update{}, err
	}

	email, err := p.gen.Generate(ctx, prompt, p.cfg.CreativeTemperature)
	if err != nil {
		p.log.Warn("draft generation failed, using fallback draft", "company", s.Company, "error", err)
		email = fallbackDraft(s, proof)
	}
	return Update{DraftEmail: ptr(strings.TrimSpace(email))}, nil
}

// retrieveProof finds the best-matching case study via hypothetical-document
// retrieval: a synthesized success story is the similarity query, not the
// raw research. Falls back to the company profile as the query when
// synthesis fails, and to a generic proof point when retrieval is empty.
func (p *Pipeline) retrieveProof(ctx context.Context, s State) string {
	query := fmt.Sprintf("%s technology business software", s.Company)

	prompt, err := render("hypothetical", hypotheticalTemplate, hypotheticalParams{
		SenderProduct: s.SenderProduct,
		Company:       s.Company,
	})
	if err == nil {
		if story, genErr := p.gen.Generate(ctx, prompt, 0); genErr == nil && strings.TrimSpace(story) != "" {
			query = story
		} else if genErr != nil {
			p.log.Warn("hypothetical story generation failed", "company", s.Company, "error", genErr)
		}
	}

	docs, err := p.know.Retrieve(ctx, query, 1)
	if err != nil {
		p.log.Warn("knowledge retrieval failed", "company", s.Company, "error", err)
		return fallbackProofPoint
	}
	if len(docs) == 0 {
		return fallbackProofPoint
	}
	return docs[0]
}

// fallbackDraft composes a minimal email without the generator so a dead
// generation service still yields one result row per lead.
func fallbackDraft(s State, proof string) string {
	return fmt.Sprintf(
		"Hi %s,\n\n%s %s\n\nWould you be open to a short chat this week?\n\n%s, %s",
		s.LeadName, proof, s.SenderProduct, s.SenderName, s.SenderCompany,
	)
}
