package pipeline

import (
	"prospect/pkg/graph"
)

// Route labels form the closed set each conditional edge is validated
// against at compile time.
const (
	routeDraft  = "draft"
	routeStop   = "stop"
	routeRevise = "revise"
	routeAccept = "accept"
)

// defaultMaxSteps is a deployment safety net: far above anything a
// correctly wired run can reach, so a mis-wired router fails loudly
// instead of spinning.
const defaultMaxSteps = 64

// Build compiles the lead pipeline:
//
//	Start ─┬─ research_news ─┬─ gatekeeper ─┬─ drafter ── reviewer ─┬─ End
//	       └─ research_site ─┘              └─ End        ▲         │
//	                                                      └─────────┘ (revise)
//
// The two researchers fan out from Start and fan in at the gatekeeper; the
// gatekeeper routes unqualified leads straight to End; the drafter/reviewer
// cycle is bounded by the reviewer's iteration cap.
func (p *Pipeline) Build(opts ...graph.Option) (*graph.Graph[State, Update], error) {
	b := graph.New(Apply)

	steps := []struct {
		name string
		fn   graph.StepFunc[State, Update]
	}{
		{StepNewsResearch, p.researchNews},
		{StepSiteResearch, p.researchSite},
		{StepGatekeeper, p.gatekeep},
		{StepDrafter, p.draft},
		{StepReviewer, p.review},
	}
	for _, s := range steps {
		if err := b.AddStep(s.name, s.fn); err != nil {
			return nil, err
		}
	}

	edges := [][2]string{
		{graph.Start, StepNewsResearch},
		{graph.Start, StepSiteResearch},
		{StepNewsResearch, StepGatekeeper},
		{StepSiteResearch, StepGatekeeper},
		{StepDrafter, StepReviewer},
	}
	for _, e := range edges {
		if err := b.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	if err := b.AddConditionalEdges(StepGatekeeper, routeAfterGate, map[string]string{
		routeDraft: StepDrafter,
		routeStop:  graph.End,
	}); err != nil {
		return nil, err
	}
	if err := b.AddConditionalEdges(StepReviewer, routeAfterReview, map[string]string{
		routeRevise: StepDrafter,
		routeAccept: graph.End,
	}); err != nil {
		return nil, err
	}

	return b.Compile(append([]graph.Option{graph.WithMaxSteps(defaultMaxSteps)}, opts...)...)
}

func routeAfterGate(s State) string {
	if s.IsQualified {
		return routeDraft
	}
	return routeStop
}

func routeAfterReview(s State) string {
	if s.IsPerfect {
		return routeAccept
	}
	return routeRevise
}
