package strategy

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/automenta/mcr/internal/mcrerrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(ctx context.Context, system, user string, options map[string]any) (*LLMResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	text := f.text
	return &LLMResponse{Text: &text}, nil
}

type fakeReasoner struct {
	valid  bool
	errMsg string
}

func (f *fakeReasoner) Validate(ctx context.Context, kb string) (bool, string) {
	return f.valid, f.errMsg
}

func linearStrategy(nodes []Node) *Strategy {
	edges := make([]Edge, 0, len(nodes)-1)
	for i := 0; i < len(nodes)-1; i++ {
		edges = append(edges, Edge{From: nodes[i].ID, To: nodes[i+1].ID})
	}
	return &Strategy{ID: "test", Nodes: nodes, Edges: edges, ResultVariable: "result"}
}

func TestExecutorLLMCallToExtractQuery(t *testing.T) {
	nodes := []Node{
		{ID: "n1", Type: NodeLLMCall, Params: map[string]any{
			"system": "answer questions about {{topic}}",
			"user":   "is the sky blue?",
		}, OutputVariable: "raw"},
		{ID: "n2", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "raw"}, OutputVariable: "result"},
	}
	s := linearStrategy(nodes)

	exec := NewExecutor(&fakeLLM{text: "is_blue(sky)"}, &fakeReasoner{})
	out, err := exec.Run(context.Background(), s, map[string]any{"topic": "weather"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "is_blue(sky)." {
		t.Fatalf("expected normalized query, got %q", out)
	}
}

func TestExecutorValidateProlog(t *testing.T) {
	nodes := []Node{
		{ID: "n1", Type: NodeValidateProlog, Params: map[string]any{"input_variable": "kb"}, OutputVariable: "result"},
	}
	s := linearStrategy(nodes)

	exec := NewExecutor(&fakeLLM{}, &fakeReasoner{valid: false, errMsg: "syntax error"})
	out, err := exec.Run(context.Background(), s, map[string]any{"kb": "not-a-clause"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", out)
	}
	if m["valid"] != false || m["error"] != "syntax error" {
		t.Fatalf("unexpected result: %+v", m)
	}
}

func TestExecutorConditionalRouterPropertyExists(t *testing.T) {
	nodes := []Node{
		{ID: "router", Type: NodeConditionalRouter, Params: map[string]any{"input_variable": "ctx"},
			Branches: []Branch{
				{Condition: Condition{PropertyExists: "dynamicOntology"}, Target: "withOntology"},
				{Condition: Condition{Default: true}, Target: "plain"},
			}},
		{ID: "withOntology", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "withText"}, OutputVariable: "result"},
		{ID: "plain", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "plainText"}, OutputVariable: "result"},
	}
	s := &Strategy{ID: "routed", Nodes: nodes, ResultVariable: "result"}

	exec := NewExecutor(&fakeLLM{}, &fakeReasoner{})
	out, err := exec.Run(context.Background(), s, map[string]any{
		"ctx":       map[string]any{"dynamicOntology": "rule."},
		"withText":  "with_ontology(x)",
		"plainText": "plain(x)",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "with_ontology(x)." {
		t.Fatalf("expected the property_exists branch to win, got %q", out)
	}
}

func TestExecutorConditionalRouterDefault(t *testing.T) {
	nodes := []Node{
		{ID: "router", Type: NodeConditionalRouter, Params: map[string]any{"input_variable": "ctx"},
			Branches: []Branch{
				{Condition: Condition{PropertyExists: "dynamicOntology"}, Target: "withOntology"},
				{Condition: Condition{Default: true}, Target: "plain"},
			}},
		{ID: "withOntology", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "withText"}, OutputVariable: "result"},
		{ID: "plain", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "plainText"}, OutputVariable: "result"},
	}
	s := &Strategy{ID: "routed", Nodes: nodes, ResultVariable: "result"}

	exec := NewExecutor(&fakeLLM{}, &fakeReasoner{})
	out, err := exec.Run(context.Background(), s, map[string]any{
		"ctx":       map[string]any{},
		"plainText": "plain(x)",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "plain(x)." {
		t.Fatalf("expected default branch, got %q", out)
	}
}

func TestExecutorParseJSONFailureWrapsStrategyExecutionError(t *testing.T) {
	nodes := []Node{
		{ID: "n1", Type: NodeParseJSON, Params: map[string]any{"input_variable": "raw"}, OutputVariable: "parsed"},
	}
	s := linearStrategy(nodes)

	exec := NewExecutor(&fakeLLM{}, &fakeReasoner{})
	_, err := exec.Run(context.Background(), s, map[string]any{"raw": "{not json"})
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	if mcrerrors.CodeOf(err) != mcrerrors.StrategyExecutionError {
		t.Fatalf("expected STRATEGY_EXECUTION_ERROR, got %v", mcrerrors.CodeOf(err))
	}
}

func TestExecutorDeterministic(t *testing.T) {
	nodes := []Node{
		{ID: "n1", Type: NodeExtractPrologQuery, Params: map[string]any{"input_variable": "raw"}, OutputVariable: "result"},
	}
	s := linearStrategy(nodes)
	exec := NewExecutor(&fakeLLM{}, &fakeReasoner{})

	out1, err1 := exec.Run(context.Background(), s, map[string]any{"raw": "foo(bar)"})
	out2, err2 := exec.Run(context.Background(), s, map[string]any{"raw": "foo(bar)"})
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if out1 != out2 {
		t.Fatalf("expected deterministic output, got %q and %q", out1, out2)
	}
}
