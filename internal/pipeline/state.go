// Package pipeline implements the lead-qualification and outreach-drafting
// pipeline: two parallel researchers, a qualification gatekeeper, an email
// drafter, and a bounded drafter/reviewer reflection loop, wired as a
// prospect graph over a shared per-lead record.
package pipeline

// State is the shared record for one lead run. It has a fixed shape: a
// field that no step has written yet reads as its zero value, never as a
// missing key. One State is created per lead and discarded after the run.
type State struct {
	// Campaign identity, set once by the run driver.
	SenderName    string
	SenderCompany string
	SenderProduct string

	// Lead identity, set once by the run driver.
	LeadName string
	Company  string

	// Research, appended by the researcher steps in registration order.
	ResearchSnippets []string

	// Qualification, written by the gatekeeper.
	ResearchSummary     string
	IsQualified         bool
	QualificationReason string

	// Drafting and review.
	DraftEmail       string
	CritiqueFeedback string // empty = no feedback yet
	IsPerfect        bool
	IterationCount   int // only the reviewer increments this
}

// Update is a step's partial update. Pointer fields overwrite when non-nil;
// Snippets append-accumulate onto State.ResearchSnippets. This is the whole
// merge-policy table: there are no other merge behaviors.
type Update struct {
	Snippets []string

	ResearchSummary     *string
	IsQualified         *bool
	QualificationReason *string
	DraftEmail          *string
	CritiqueFeedback    *string
	IsPerfect           *bool
	IterationCount      *int
}

// Apply merges an Update into a State and returns the merged copy. Snippet
// accumulation copies the backing array so concurrent fan-out branches can
// never alias each other's slices.
func Apply(s State, u Update) State {
	if len(u.Snippets) > 0 {
		s.ResearchSnippets = append(append([]string{}, s.ResearchSnippets...), u.Snippets...)
	}
	if u.ResearchSummary != nil {
		s.ResearchSummary = *u.ResearchSummary
	}
	if u.IsQualified != nil {
		s.IsQualified = *u.IsQualified
	}
	if u.QualificationReason != nil {
		s.QualificationReason = *u.QualificationReason
	}
	if u.DraftEmail != nil {
		s.DraftEmail = *u.DraftEmail
	}
	if u.CritiqueFeedback != nil {
		s.CritiqueFeedback = *u.CritiqueFeedback
	}
	if u.IsPerfect != nil {
		s.IsPerfect = *u.IsPerfect
	}
	if u.IterationCount != nil {
		s.IterationCount = *u.IterationCount
	}
	return s
}

func ptr[T any](v T) *T { return &v }
