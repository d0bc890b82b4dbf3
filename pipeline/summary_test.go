package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestPrintSummary(t *testing.T) {
	p := New(WithName("demo"))
	must(t, p.AddNode("a", constNode(1), WithDescription("root value")))
	must(t, p.AddNode("b", constNode(2), WithDependencies("a", "x"), WithMetadata(map[string]interface{}{"owner": "billing"})))

	var buf strings.Builder
	if err := p.PrintSummary(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"demo", "a", "b", "<- a, x", "root value", "owner=billing", "virtual inputs: x", "0 observers"} {
		if !strings.Contains(out, want) {
			t.Fatalf("PrintSummary() output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary_ObserverCount(t *testing.T) {
	p := New(WithName("demo"))
	must(t, p.AddNode("a", constNode(1)))
	p.RegisterObserver(Observer(noOpObserver{}))

	var buf strings.Builder
	if err := p.PrintSummary(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "1 observers") {
		t.Fatalf("PrintSummary() should report 1 registered observer:\n%s", buf.String())
	}
}

type noOpObserver struct{}

func (noOpObserver) OnEvent(context.Context, Event) {}

func TestDisplayWidth_WideRunes(t *testing.T) {
	if displayWidth("ab") != 2 {
		t.Fatalf("displayWidth(ab) = %d, want 2", displayWidth("ab"))
	}
	if w := displayWidth("日本語"); w != 6 {
		t.Fatalf("displayWidth(日本語) = %d, want 6", w)
	}
}
