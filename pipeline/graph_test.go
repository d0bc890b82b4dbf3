package pipeline

import (
	"reflect"
	"sort"
	"testing"
)

func TestTopoSort(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *dag
		index     map[string]int
		wantOrder []string
		wantErr   bool
	}{
		{
			name: "linear chain",
			build: func() *dag {
				d := newDAG()
				d.addEdge("1", "2")
				d.addEdge("2", "3")
				return d
			},
			index:     map[string]int{"1": 0, "2": 1, "3": 2},
			wantOrder: []string{"1", "2", "3"},
		},
		{
			name: "single vertex",
			build: func() *dag {
				d := newDAG()
				d.addVertex("1")
				return d
			},
			index:     map[string]int{"1": 0},
			wantOrder: []string{"1"},
		},
		{
			name: "empty graph",
			build: func() *dag {
				return newDAG()
			},
			index:     map[string]int{},
			wantOrder: []string{},
		},
		{
			name: "cycle",
			build: func() *dag {
				d := newDAG()
				d.addEdge("1", "2")
				d.addEdge("2", "1")
				return d
			},
			index:   map[string]int{"1": 0, "2": 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.build()
			got, err := d.topoSort(tt.index)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) == 0 && len(tt.wantOrder) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.wantOrder) {
				t.Fatalf("topoSort() = %v, want %v", got, tt.wantOrder)
			}
		})
	}
}

func TestTopoSort_TieBreakByInsertion(t *testing.T) {
	// Diamond: 1 -> {3, 2} -> 4. Insertion order places 2 before 3.
	d := newDAG()
	d.addEdge("1", "3")
	d.addEdge("1", "2")
	d.addEdge("2", "4")
	d.addEdge("3", "4")
	index := map[string]int{"1": 0, "2": 1, "3": 2, "4": 3}

	got, err := d.topoSort(index)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "2", "3", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topoSort() = %v, want %v", got, want)
	}
}

func TestWouldCycle(t *testing.T) {
	d := newDAG()
	d.addEdge("a", "b")
	d.addEdge("b", "c")

	if !d.wouldCycle("c", "a") {
		t.Fatal("c -> a should close the cycle a->b->c->a")
	}
	if d.wouldCycle("a", "c") {
		t.Fatal("a -> c should not create a cycle")
	}
	if !d.wouldCycle("a", "a") {
		t.Fatal("a self-edge is always a cycle")
	}
}

func TestAncestors_StopsAtBypass(t *testing.T) {
	d := newDAG()
	d.addEdge("a", "b")
	d.addEdge("b", "c")

	anc := d.ancestors([]string{"c"}, map[string]bool{"b": true})
	got := keysOf(anc)
	sort.Strings(got)
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ancestors() = %v, want %v (a must not appear past the bypass)", got, want)
	}
}

func TestDAGRoots(t *testing.T) {
	d := newDAG()
	d.addEdge("a", "b")
	d.addEdge("b", "c")
	d.addVertex("standalone")

	got := d.roots()
	sort.Strings(got)
	want := []string{"a", "standalone"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("roots() = %v, want %v", got, want)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	d := newDAG()
	d.addEdge("a", "b")

	c := d.clone()
	c.addEdge("b", "c")

	if d.hasVertex("c") {
		t.Fatal("mutating the clone must not affect the original")
	}
}
