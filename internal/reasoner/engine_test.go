package reasoner

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() Config {
	return Config{QueryTimeout: 5 * time.Second, DefaultLimit: 10}
}

func TestConsultAndQuerySuccess(t *testing.T) {
	adapter, err := NewAdapter(testConfig())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	defer adapter.Close()

	outcome, err := adapter.ConsultAndQuery(context.Background(), "is_blue(sky).", "is_blue(sky).", QueryOptions{})
	if err != nil {
		t.Fatalf("ConsultAndQuery() error = %v", err)
	}
	if len(outcome.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(outcome.Results))
	}
	if !outcome.Results[0].True {
		t.Fatalf("expected sentinel True result, got %+v", outcome.Results[0])
	}
}

func TestConsultAndQueryBindings(t *testing.T) {
	adapter, err := NewAdapter(testConfig())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	defer adapter.Close()

	kb := "man(socrates).\nman(plato)."
	outcome, err := adapter.ConsultAndQuery(context.Background(), kb, "man(X).", QueryOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ConsultAndQuery() error = %v", err)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(outcome.Results))
	}
	for _, r := range outcome.Results {
		if r.True {
			t.Fatalf("expected bound result, got sentinel True")
		}
		if _, ok := r.Bindings["X"]; !ok {
			t.Fatalf("expected binding for X, got %+v", r.Bindings)
		}
	}
}

func TestConsultAndQueryKBSyntaxError(t *testing.T) {
	adapter, err := NewAdapter(testConfig())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	defer adapter.Close()

	_, err = adapter.ConsultAndQuery(context.Background(), "not-a-clause", "true.", QueryOptions{})
	if err == nil {
		t.Fatal("expected error for malformed knowledge base")
	}
}

func TestValidate(t *testing.T) {
	adapter, err := NewAdapter(testConfig())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	defer adapter.Close()

	if valid, msg := adapter.Validate(context.Background(), "man(socrates)."); !valid {
		t.Fatalf("expected valid, got invalid: %s", msg)
	}
	if valid, _ := adapter.Validate(context.Background(), "not-a-clause"); valid {
		t.Fatal("expected invalid for malformed clause")
	}
}

func TestFormatProofTreeNilIsNil(t *testing.T) {
	if got := FormatProofTree(nil, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestFormatProofTreeDegradesMissingGoal(t *testing.T) {
	native := &ProofTree{Goal: "man(X)", Children: []*ProofTree{{Goal: "", Children: nil}, nil}}
	got := FormatProofTree(native, nil)
	if got.Children[0].Goal != placeholderFail {
		t.Fatalf("expected child goal %q, got %q", placeholderFail, got.Children[0].Goal)
	}
	if got.Children[1].Goal != placeholderUnknown {
		t.Fatalf("expected nil-child goal %q, got %q", placeholderUnknown, got.Children[1].Goal)
	}
}
