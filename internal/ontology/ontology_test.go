package ontology

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSourceListAndConcat(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "animals.pl"), []byte("mortal(X) :- man(X)."), 0o644)
	os.WriteFile(filepath.Join(dir, "colors.pl"), []byte("primary(red)."), 0o644)

	src := NewDirSource(dir)

	entries, err := src.ListOntologies(context.Background(), true)
	if err != nil {
		t.Fatalf("ListOntologies() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "animals" || entries[0].Rules == "" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}

	rules, err := src.GetGlobalOntologyRulesAsString(context.Background())
	if err != nil {
		t.Fatalf("GetGlobalOntologyRulesAsString() error = %v", err)
	}
	if rules == "" {
		t.Fatal("expected concatenated rules to be non-empty")
	}
}

func TestDirSourceMissingDirIsEmptyNotError(t *testing.T) {
	src := NewDirSource(filepath.Join(t.TempDir(), "does-not-exist"))
	entries, err := src.ListOntologies(context.Background(), false)
	if err != nil {
		t.Fatalf("expected no error for a missing directory, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected zero entries, got %+v", entries)
	}
}
