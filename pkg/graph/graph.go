// Package graph is a small directed-graph execution engine for pipelines
// that thread a shared record through a set of named steps. Steps are wired
// with unconditional edges, parallel fan-out/fan-in, and conditional routers
// over a closed label set. Each step returns a partial update which is merged
// into the record by an application-supplied merge function before any
// successor runs, so merge policy stays with the state type, not the engine.
//
// The engine performs no I/O of its own beyond invoking step functions.
package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Start and End are the reserved entry and terminal markers. They are valid
// edge endpoints but can never be registered as steps.
const (
	Start = "_start"
	End   = "_end"
)

// StepFunc is one unit of work. It receives the current record as a
// read-only snapshot and returns a partial update to merge.
type StepFunc[S, U any] func(ctx context.Context, s S) (U, error)

// RouterFunc inspects the record after its source step's update has been
// merged and returns a route label. The label must be a key of the route
// map given to AddConditionalEdges.
type RouterFunc[S any] func(s S) string

type conditional[S any] struct {
	router RouterFunc[S]
	routes map[string]string
}

// Builder accumulates steps and edges, then compiles them into an
// executable Graph.
type Builder[S, U any] struct {
	apply func(S, U) S
	steps map[string]StepFunc[S, U]
	order map[string]int
	edges map[string][]string
	conds map[string]conditional[S]
}

// New creates a Builder. The apply function defines the merge policy:
// it combines a step's partial update into the record and returns the
// merged record.
func New[S, U any](apply func(S, U) S) *Builder[S, U] {
	return &Builder[S, U]{
		apply: apply,
		steps: make(map[string]StepFunc[S, U]),
		order: make(map[string]int),
		edges: make(map[string][]string),
		conds: make(map[string]conditional[S]),
	}
}

// AddStep registers a named step. Registration order is the deterministic
// tie-break for merging updates when steps execute in the same wave.
func (b *Builder[S, U]) AddStep(name string, fn StepFunc[S, U]) error {
	if name == Start || name == End {
		return fmt.Errorf("%w: %q is a reserved marker", ErrDuplicateStep, name)
	}
	if _, ok := b.steps[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStep, name)
	}
	if fn == nil {
		return fmt.Errorf("%w: step %q has nil function", ErrValidation, name)
	}
	b.order[name] = len(b.order)
	b.steps[name] = fn
	return nil
}

// AddEdge adds an unconditional transition. Multiple edges out of the same
// source denote parallel fan-out; multiple edges into the same target
// denote fan-in (the target runs once, after all same-wave predecessors
// have merged).
func (b *Builder[S, U]) AddEdge(from, to string) error {
	if from == End {
		return fmt.Errorf("%w: edge from terminal marker", ErrValidation)
	}
	if to == Start {
		return fmt.Errorf("%w: edge into entry marker", ErrValidation)
	}
	b.edges[from] = append(b.edges[from], to)
	return nil
}

// AddConditionalEdges attaches a router to a step. After the step's update
// is merged, the router picks one label from routes; the mapped target (a
// step name or End) is scheduled. A label missing from routes fails the
// run with ErrUnknownRoute. Only one router per source is allowed.
func (b *Builder[S, U]) AddConditionalEdges(from string, router RouterFunc[S], routes map[string]string) error {
	if from == End {
		return fmt.Errorf("%w: conditional edge from terminal marker", ErrValidation)
	}
	if router == nil || len(routes) == 0 {
		return fmt.Errorf("%w: conditional edge from %q needs a router and routes", ErrValidation, from)
	}
	if _, ok := b.conds[from]; ok {
		return fmt.Errorf("%w: conditional edges already set for %q", ErrValidation, from)
	}
	b.conds[from] = conditional[S]{router: router, routes: routes}
	return nil
}

// Option configures a Graph at compile time.
type Option func(*graphConfig)

type graphConfig struct {
	maxSteps int
	observer Observer
}

// WithMaxSteps bounds the total number of step executions per run. Zero
// (the default) means unbounded: cycles are legal and the engine does not
// loop-detect, so long-running deployments should set a generous cap.
func WithMaxSteps(n int) Option {
	return func(c *graphConfig) { c.maxSteps = n }
}

// WithObserver attaches an observer that receives run events.
func WithObserver(obs Observer) Option {
	return func(c *graphConfig) { c.observer = obs }
}

// Compile validates the wiring and returns an executable Graph. Every
// registered step must have at least one outgoing edge (unconditional or
// conditional), Start must have at least one outgoing edge, and all edge
// endpoints and route targets must be registered steps or markers.
func (b *Builder[S, U]) Compile(opts ...Option) (*Graph[S, U], error) {
	cfg := graphConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	known := func(name string) bool {
		_, ok := b.steps[name]
		return ok
	}

	for from, targets := range b.edges {
		if from != Start && !known(from) {
			return nil, fmt.Errorf("%w: edge source %q", ErrStepNotFound, from)
		}
		for _, to := range targets {
			if to != End && !known(to) {
				return nil, fmt.Errorf("%w: edge target %q", ErrStepNotFound, to)
			}
		}
	}
	for from, c := range b.conds {
		if from != Start && !known(from) {
			return nil, fmt.Errorf("%w: conditional edge source %q", ErrStepNotFound, from)
		}
		for label, to := range c.routes {
			if to != End && !known(to) {
				return nil, fmt.Errorf("%w: route %q -> %q", ErrStepNotFound, label, to)
			}
		}
	}

	if len(b.edges[Start]) == 0 {
		if _, ok := b.conds[Start]; !ok {
			return nil, fmt.Errorf("%w: entry marker has no outgoing edge", ErrValidation)
		}
	}
	for name := range b.steps {
		if len(b.edges[name]) == 0 {
			if _, ok := b.conds[name]; !ok {
				return nil, fmt.Errorf("%w: step %q has no outgoing edge", ErrValidation, name)
			}
		}
	}

	return &Graph[S, U]{
		apply:    b.apply,
		steps:    b.steps,
		order:    b.order,
		edges:    b.edges,
		conds:    b.conds,
		maxSteps: cfg.maxSteps,
		observer: cfg.observer,
	}, nil
}

// Graph is a compiled, executable pipeline. A Graph is immutable and safe
// to share; each Run owns its record exclusively.
type Graph[S, U any] struct {
	apply    func(S, U) S
	steps    map[string]StepFunc[S, U]
	order    map[string]int
	edges    map[string][]string
	conds    map[string]conditional[S]
	maxSteps int
	observer Observer
}

// Run executes the graph against one record, wave by wave. The first wave
// is the set of Start successors. All steps in a wave execute against the
// same record snapshot (concurrently, one goroutine per step); their
// updates are merged in step-registration order before routing. Successors
// of the merged wave form the next wave, with duplicates collapsed so a
// fan-in target executes once. A path ends when it transitions to End; the
// run completes when the next wave is empty.
func (g *Graph[S, U]) Run(ctx context.Context, record S) (S, error) {
	executed := 0
	wave := 0

	frontier, err := g.successors(Start, record, wave)
	if err != nil {
		emitEvent(g.observer, Event{Type: EventRunError, Step: Start, Error: err})
		return record, err
	}

	for len(frontier) > 0 {
		wave++
		if err := ctx.Err(); err != nil {
			emitEvent(g.observer, Event{Type: EventRunError, Wave: wave, Error: err})
			return record, err
		}

		names := g.sortWave(frontier)

		if g.maxSteps > 0 && executed+len(names) > g.maxSteps {
			err := fmt.Errorf("%w: limit %d reached at wave %d", ErrMaxStepsExceeded, g.maxSteps, wave)
			emitEvent(g.observer, Event{Type: EventRunError, Wave: wave, Error: err})
			return record, err
		}

		updates := make([]U, len(names))
		snapshot := record
		eg, egCtx := errgroup.WithContext(ctx)
		for i, name := range names {
			fn := g.steps[name]
			eg.Go(func() error {
				emitEvent(g.observer, Event{Type: EventStepEnter, Step: name, Wave: wave})
				start := time.Now()
				u, err := fn(egCtx, snapshot)
				elapsed := time.Since(start)
				if err != nil {
					emitEvent(g.observer, Event{Type: EventStepExit, Step: name, Wave: wave, Elapsed: elapsed, Error: err})
					return fmt.Errorf("step %s: %w", name, err)
				}
				updates[i] = u
				emitEvent(g.observer, Event{Type: EventStepExit, Step: name, Wave: wave, Elapsed: elapsed})
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			emitEvent(g.observer, Event{Type: EventRunError, Wave: wave, Error: err})
			return record, err
		}

		for _, u := range updates {
			record = g.apply(record, u)
		}
		executed += len(names)

		var next []string
		for _, name := range names {
			succ, err := g.successors(name, record, wave)
			if err != nil {
				emitEvent(g.observer, Event{Type: EventRunError, Step: name, Wave: wave, Error: err})
				return record, err
			}
			next = append(next, succ...)
		}
		frontier = next
	}

	emitEvent(g.observer, Event{Type: EventRunComplete, Wave: wave})
	return record, nil
}

// successors resolves the outgoing transitions of a step (or Start)
// against the current record. Routers run strictly after the source wave's
// merges, so they see the post-merge record.
func (g *Graph[S, U]) successors(from string, record S, wave int) ([]string, error) {
	var out []string
	for _, to := range g.edges[from] {
		emitEvent(g.observer, Event{Type: EventTransition, Step: from, Target: to, Wave: wave})
		if to != End {
			out = append(out, to)
		}
	}
	if c, ok := g.conds[from]; ok {
		label := c.router(record)
		to, ok := c.routes[label]
		if !ok {
			return nil, fmt.Errorf("%w: step %q router returned %q", ErrUnknownRoute, from, label)
		}
		emitEvent(g.observer, Event{Type: EventTransition, Step: from, Target: to, Wave: wave})
		if to != End {
			out = append(out, to)
		}
	}
	return out, nil
}

// sortWave deduplicates a frontier and orders it by step registration,
// which fixes both fan-in (a target named by several predecessors runs
// once) and the merge tie-break for parallel steps.
func (g *Graph[S, U]) sortWave(frontier []string) []string {
	seen := make(map[string]bool, len(frontier))
	var names []string
	for _, n := range frontier {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return g.order[names[i]] < g.order[names[j]]
	})
	return names
}
