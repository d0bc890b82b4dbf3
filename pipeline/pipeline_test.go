package pipeline

import (
	"context"
	"errors"
	"testing"
)

func constNode(v interface{}) Func {
	return func(map[string]interface{}) (interface{}, error) { return v, nil }
}

// TestExecute_LinearChain covers seed scenario 1.
func TestExecute_LinearChain(t *testing.T) {
	p := New()
	if err := p.AddNode("a", func(map[string]interface{}) (interface{}, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNode("b", func(in map[string]interface{}) (interface{}, error) {
		return in["a"].(int) + 1, nil
	}, WithDependencies("a")); err != nil {
		t.Fatal(err)
	}
	if err := p.AddNode("c", func(in map[string]interface{}) (interface{}, error) {
		return in["b"].(int) * 2, nil
	}, WithDependencies("b")); err != nil {
		t.Fatal(err)
	}

	got, err := p.Execute(context.Background(), []string{"c"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["c"] != 4 {
		t.Fatalf("execute([c]) = %v, want 4", got["c"])
	}

	got, err = p.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["c"] != 4 {
		t.Fatalf("execute() = %v, want {c: 4}", got)
	}
}

// TestExecute_VirtualInput covers seed scenario 2.
func TestExecute_VirtualInput(t *testing.T) {
	p := New()
	p.MustAddNode("b", func(in map[string]interface{}) (interface{}, error) {
		return in["a"].(int) + 1, nil
	}, WithDependencies("a"))

	vis := p.GetVirtualInputs()
	if len(vis) != 1 || vis[0] != "a" {
		t.Fatalf("GetVirtualInputs() = %v, want [a]", vis)
	}

	got, err := p.Execute(context.Background(), []string{"b"}, map[string]interface{}{"a": 10})
	if err != nil {
		t.Fatal(err)
	}
	if got["b"] != 11 {
		t.Fatalf("execute = %v, want {b: 11}", got["b"])
	}

	_, err = p.Execute(context.Background(), []string{"b"}, nil)
	if err == nil {
		t.Fatal("expected missing-input error")
	}
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Kind != KindMissingInput {
		t.Fatalf("got %v, want KindMissingInput", err)
	}
}

// TestExecute_Bypass covers seed scenario 3: bypassing b must skip a's Func
// entirely, verified with a call counter.
func TestExecute_Bypass(t *testing.T) {
	var aCalls int
	p := New()
	must(t, p.AddNode("a", func(map[string]interface{}) (interface{}, error) {
		aCalls++
		return 1, nil
	}))
	must(t, p.AddNode("b", func(in map[string]interface{}) (interface{}, error) {
		return in["a"].(int) + 1, nil
	}, WithDependencies("a")))
	must(t, p.AddNode("c", func(in map[string]interface{}) (interface{}, error) {
		return in["b"].(int) * 2, nil
	}, WithDependencies("b")))

	got, err := p.Execute(context.Background(), []string{"c"}, map[string]interface{}{"b": 100})
	if err != nil {
		t.Fatal(err)
	}
	if got["c"] != 200 {
		t.Fatalf("execute = %v, want {c: 200}", got["c"])
	}
	if aCalls != 0 {
		t.Fatalf("a was called %d times, want 0 (bypassed)", aCalls)
	}
}

// TestAddNode_CycleDetection covers seed scenario 4.
func TestAddNode_CycleDetection(t *testing.T) {
	p := New()
	must(t, p.AddNode("a", constNode(1), WithDependencies("b")))

	err := p.AddNode("b", constNode(2), WithDependencies("a"))
	if err == nil {
		t.Fatal("expected cycle error")
	}
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Kind != KindCycle {
		t.Fatalf("got %v, want KindCycle", err)
	}

	nodes, lerr := p.ListNodes()
	if lerr != nil {
		t.Fatal(lerr)
	}
	if len(nodes) != 1 || nodes[0] != "a" {
		t.Fatalf("ListNodes() = %v, want [a]", nodes)
	}
	if !p.IsVirtualInput("b") {
		t.Fatal("b should remain a virtual input after the failed add")
	}
}

// TestExecute_MultiOutputExpansion covers seed scenario 5.
func TestExecute_MultiOutputExpansion(t *testing.T) {
	p := New()
	must(t, p.AddNode("stats", func(map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"mean": 2.0, "std": 0.5}, nil
	}, WithOutputs(OutputNames("mean", "std")...)))
	must(t, p.AddNode("cv", func(in map[string]interface{}) (interface{}, error) {
		return in["std"].(float64) / in["mean"].(float64), nil
	}, WithDependencies("mean", "std")))

	got, err := p.Execute(context.Background(), []string{"cv"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["cv"] != 0.25 {
		t.Fatalf("execute = %v, want {cv: 0.25}", got["cv"])
	}
}

// TestExtractSubgraph_Equivalence covers seed scenario 6.
func TestExtractSubgraph_Equivalence(t *testing.T) {
	p := New()
	must(t, p.AddNode("root", constNode(10)))
	must(t, p.AddNode("b1", func(in map[string]interface{}) (interface{}, error) {
		return in["root"].(int) + 1, nil
	}, WithDependencies("root")))
	must(t, p.AddNode("b2", func(in map[string]interface{}) (interface{}, error) {
		return in["root"].(int) * 2, nil
	}, WithDependencies("root")))

	sub, err := p.ExtractSubgraph("b1")
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := sub.ListNodes()
	for _, n := range nodes {
		if n == "b2" {
			t.Fatalf("subgraph should not contain b2, got %v", nodes)
		}
	}

	full, err := p.Execute(context.Background(), []string{"b1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	subResult, err := sub.Execute(context.Background(), []string{"b1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if full["b1"] != subResult["b1"] {
		t.Fatalf("subgraph result %v != full pipeline result %v", subResult["b1"], full["b1"])
	}
}

// TestExecute_HookFailure covers seed scenario 7.
func TestExecute_HookFailure(t *testing.T) {
	p := New()
	errNegative := errors.New("value must not be negative")
	must(t, p.AddNode("n", constNode(-5), WithPostHooks(func(v interface{}) error {
		if v.(int) < 0 {
			return errNegative
		}
		return nil
	})))

	_, err := p.Execute(context.Background(), []string{"n"}, nil)
	if err == nil {
		t.Fatal("expected hook failure")
	}
	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *PipelineError", err)
	}
	if perr.Kind != KindUserRaised || perr.Node != "n" || perr.Phase != PhasePost {
		t.Fatalf("got Kind=%v Node=%v Phase=%v, want UserRaised/n/post", perr.Kind, perr.Node, perr.Phase)
	}
	if !errors.Is(err, errNegative) {
		t.Fatal("expected errors.Is to find the underlying hook error")
	}
}

// TestAddNode_Promotion covers seed scenario 8.
func TestAddNode_Promotion(t *testing.T) {
	p := New()
	must(t, p.AddNode("b", func(in map[string]interface{}) (interface{}, error) {
		return in["a"].(int) + 1, nil
	}, WithDependencies("a")))

	if !p.IsVirtualInput("a") {
		t.Fatal("a should be a virtual input before promotion")
	}

	must(t, p.AddNode("a", constNode(7)))

	if len(p.GetVirtualInputs()) != 0 {
		t.Fatalf("GetVirtualInputs() = %v, want empty after promotion", p.GetVirtualInputs())
	}

	got, err := p.Execute(context.Background(), []string{"b"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["b"] != 8 {
		t.Fatalf("execute = %v, want {b: 8}", got["b"])
	}
}

func TestRoots(t *testing.T) {
	p := New()
	must(t, p.AddNode("seedless", constNode(1)))
	must(t, p.AddNode("b", func(in map[string]interface{}) (interface{}, error) {
		return in["seedless"].(int) + 1, nil
	}, WithDependencies("seedless")))
	must(t, p.AddNode("needs_virtual", func(in map[string]interface{}) (interface{}, error) {
		return in["x"], nil
	}, WithDependencies("x")))

	got := p.Roots()
	want := []string{"seedless"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("Roots() = %v, want %v", got, want)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
