package pipeline

import "context"

type reviewVerdict struct {
	IsPerfect bool   `json:"is_perfect"`
	Feedback  string `json:"feedback"`
}

// review is the bounded reflection step. With iteration count n:
//
//   - n >= MaxIterations: forced accept without a generation call. This is
//     the hard cap on rewriting cost.
//   - verdict perfect: accept.
//   - verdict imperfect: record feedback and loop back to the drafter.
//   - service/parse failure: fail open (accept) rather than loop on errors.
//
// The reviewer is the sole writer of IterationCount, which only increases.
func (p *Pipeline) review(ctx context.Context, s State) (Update, error) {
	next := s.IterationCount + 1

	if s.IterationCount >= p.cfg.MaxIterations {
		p.log.Info("review cap reached, forcing accept", "company", s.Company, "iterations", s.IterationCount)
		return Update{IsPerfect: ptr(true), IterationCount: ptr(next)}, nil
	}

	prompt, err := render("reviewer", reviewerTemplate, reviewerParams{
		SenderName:    s.SenderName,
		SenderCompany: s.SenderCompany,
		LeadName:      s.LeadName,
		Company:       s.Company,
		Draft:         s.DraftEmail,
	})
	if err != nil {
		return Update{}, err
	}

	var v reviewVerdict
	if err := p.gen.GenerateJSON(ctx, prompt, &v); err != nil {
		p.log.Warn("review failed, accepting draft as-is", "company", s.Company, "error", err)
		return Update{IsPerfect: ptr(true), IterationCount: ptr(next)}, nil
	}

	if v.IsPerfect {
		return Update{IsPerfect: ptr(true), IterationCount: ptr(next)}, nil
	}

	p.log.Info("draft needs revision", "company", s.Company, "iteration", next, "feedback", v.Feedback)
	return Update{
		IsPerfect:        ptr(false),
		IterationCount:   ptr(next),
		CritiqueFeedback: ptr(v.Feedback),
	}, nil
}
