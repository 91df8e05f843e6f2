package graph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// rec is the shared test record: an accumulating log plus overwrite fields.
type rec struct {
	Log  []string
	Flag bool
	N    int
}

// upd is the partial update: Log appends, pointer fields overwrite.
type upd struct {
	Log  []string
	Flag *bool
	N    *int
}

func apply(s rec, u upd) rec {
	if len(u.Log) > 0 {
		s.Log = append(append([]string{}, s.Log...), u.Log...)
	}
	if u.Flag != nil {
		s.Flag = *u.Flag
	}
	if u.N != nil {
		s.N = *u.N
	}
	return s
}

func appendStep(entry string) StepFunc[rec, upd] {
	return func(ctx context.Context, s rec) (upd, error) {
		return upd{Log: []string{entry}}, nil
	}
}

func TestAddStep_Duplicate(t *testing.T) {
	b := New(apply)
	if err := b.AddStep("a", appendStep("a")); err != nil {
		t.Fatalf("AddStep: %v", err)
	}
	err := b.AddStep("a", appendStep("a"))
	if !errors.Is(err, ErrDuplicateStep) {
		t.Errorf("want ErrDuplicateStep, got %v", err)
	}
}

func TestAddStep_ReservedMarkers(t *testing.T) {
	b := New(apply)
	for _, name := range []string{Start, End} {
		if err := b.AddStep(name, appendStep("x")); !errors.Is(err, ErrDuplicateStep) {
			t.Errorf("AddStep(%q): want ErrDuplicateStep, got %v", name, err)
		}
	}
}

func TestCompile_EntryUnwired(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge("a", End)
	_, err := b.Compile()
	if !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation for unwired entry, got %v", err)
	}
}

func TestCompile_StepWithoutOutgoingEdge(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddStep("b", appendStep("b"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", "b")
	// b has no outgoing edge.
	_, err := b.Compile()
	if !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
}

func TestCompile_UnknownEdgeTarget(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", "ghost")
	_, err := b.Compile()
	if !errors.Is(err, ErrStepNotFound) {
		t.Errorf("want ErrStepNotFound, got %v", err)
	}
}

func TestCompile_UnknownRouteTarget(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddConditionalEdges("a", func(rec) string { return "go" }, map[string]string{"go": "ghost"})
	_, err := b.Compile()
	if !errors.Is(err, ErrStepNotFound) {
		t.Errorf("want ErrStepNotFound, got %v", err)
	}
}

func TestRun_Sequential(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddStep("b", appendStep("b"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", "b")
	_ = b.AddEdge("b", End)
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out, err := g.Run(context.Background(), rec{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, out.Log); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
}

// Fan-out into fan-in: both branch contributions must land in the merged
// record, in registration order, and the join must execute exactly once.
func TestRun_FanOutFanIn(t *testing.T) {
	var joinRuns atomic.Int32

	b := New(apply)
	_ = b.AddStep("left", func(ctx context.Context, s rec) (upd, error) {
		return upd{Log: []string{"left"}}, nil
	})
	_ = b.AddStep("right", func(ctx context.Context, s rec) (upd, error) {
		// Finish after left would have; merge order must not care.
		time.Sleep(5 * time.Millisecond)
		return upd{Log: []string{"right"}}, nil
	})
	_ = b.AddStep("join", func(ctx context.Context, s rec) (upd, error) {
		joinRuns.Add(1)
		if len(s.Log) != 2 {
			t.Errorf("join saw %d contributions, want 2: %v", len(s.Log), s.Log)
		}
		return upd{Log: []string{"join"}}, nil
	})
	_ = b.AddEdge(Start, "left")
	_ = b.AddEdge(Start, "right")
	_ = b.AddEdge("left", "join")
	_ = b.AddEdge("right", "join")
	_ = b.AddEdge("join", End)

	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := g.Run(context.Background(), rec{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := joinRuns.Load(); got != 1 {
		t.Errorf("join executed %d times, want 1", got)
	}
	if diff := cmp.Diff([]string{"left", "right", "join"}, out.Log); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ConditionalRoute(t *testing.T) {
	flag := func(v bool) StepFunc[rec, upd] {
		return func(ctx context.Context, s rec) (upd, error) {
			return upd{Flag: &v, Log: []string{"gate"}}, nil
		}
	}

	for _, tc := range []struct {
		name    string
		pass    bool
		wantLog []string
	}{
		{"routes to next step", true, []string{"gate", "after"}},
		{"routes to End", false, []string{"gate"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := New(apply)
			_ = b.AddStep("gate", flag(tc.pass))
			_ = b.AddStep("after", appendStep("after"))
			_ = b.AddEdge(Start, "gate")
			_ = b.AddConditionalEdges("gate", func(s rec) string {
				if s.Flag {
					return "pass"
				}
				return "stop"
			}, map[string]string{"pass": "after", "stop": End})
			_ = b.AddEdge("after", End)

			g, err := b.Compile()
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			out, err := g.Run(context.Background(), rec{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff(tc.wantLog, out.Log); diff != "" {
				t.Errorf("log mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// The router sees the record only after the source step's update merged.
func TestRun_RouterSeesMergedUpdate(t *testing.T) {
	b := New(apply)
	v := 7
	_ = b.AddStep("set", func(ctx context.Context, s rec) (upd, error) {
		return upd{N: &v}, nil
	})
	var sawN int
	_ = b.AddConditionalEdges("set", func(s rec) string {
		sawN = s.N
		return "done"
	}, map[string]string{"done": End})
	_ = b.AddEdge(Start, "set")

	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := g.Run(context.Background(), rec{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sawN != 7 {
		t.Errorf("router saw N=%d, want 7", sawN)
	}
}

func TestRun_UnknownRouteLabel(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddConditionalEdges("a", func(rec) string { return "surprise" }, map[string]string{"known": End})
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = g.Run(context.Background(), rec{})
	if !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("want ErrUnknownRoute, got %v", err)
	}
}

func TestRun_CycleBoundedByRouter(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("loop", func(ctx context.Context, s rec) (upd, error) {
		n := s.N + 1
		return upd{N: &n, Log: []string{"loop"}}, nil
	})
	_ = b.AddEdge(Start, "loop")
	_ = b.AddConditionalEdges("loop", func(s rec) string {
		if s.N < 3 {
			return "again"
		}
		return "done"
	}, map[string]string{"again": "loop", "done": End})

	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := g.Run(context.Background(), rec{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.N != 3 || len(out.Log) != 3 {
		t.Errorf("cycle ran N=%d times with %d log entries, want 3/3", out.N, len(out.Log))
	}
}

func TestRun_MaxStepsGuard(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("loop", appendStep("loop"))
	_ = b.AddEdge(Start, "loop")
	_ = b.AddConditionalEdges("loop", func(rec) string { return "again" }, map[string]string{"again": "loop"})

	g, err := b.Compile(WithMaxSteps(10))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = g.Run(context.Background(), rec{})
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Errorf("want ErrMaxStepsExceeded, got %v", err)
	}
}

func TestRun_StepErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	b := New(apply)
	_ = b.AddStep("a", func(ctx context.Context, s rec) (upd, error) {
		return upd{}, boom
	})
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", End)
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = g.Run(context.Background(), rec{})
	if !errors.Is(err, boom) {
		t.Errorf("want wrapped step error, got %v", err)
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", End)
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Run(ctx, rec{}); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestRun_ObserverTrace(t *testing.T) {
	trace := &TraceCollector{}

	b := New(apply)
	_ = b.AddStep("a", appendStep("a"))
	_ = b.AddEdge(Start, "a")
	_ = b.AddEdge("a", End)
	g, err := b.Compile(WithObserver(trace))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := g.Run(context.Background(), rec{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := len(trace.EventsOfType(EventStepEnter)); got != 1 {
		t.Errorf("step_enter events = %d, want 1", got)
	}
	if got := len(trace.EventsOfType(EventStepExit)); got != 1 {
		t.Errorf("step_exit events = %d, want 1", got)
	}
	if got := len(trace.EventsOfType(EventRunComplete)); got != 1 {
		t.Errorf("run_complete events = %d, want 1", got)
	}
}
