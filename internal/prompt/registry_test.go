package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/automenta/mcr/internal/mcrerrors"
)

func TestGetUnknownTemplate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("NOPE"); mcrerrors.CodeOf(err) != mcrerrors.PromptTemplateNotFound {
		t.Fatalf("expected PROMPT_TEMPLATE_NOT_FOUND, got %v", err)
	}
}

func TestRenderMissingPlaceholder(t *testing.T) {
	tmpl := Template{Name: "T", System: "sys", User: "Hello {{name}}"}
	if _, err := Render(tmpl, map[string]string{}); mcrerrors.CodeOf(err) != mcrerrors.PromptFormattingFailed {
		t.Fatalf("expected PROMPT_FORMATTING_FAILED, got %v", err)
	}
}

func TestRenderFillsKnownPlaceholders(t *testing.T) {
	tmpl := Template{Name: "T", System: "sys {{topic}}", User: "Hello {{name}}, about {{topic}}"}
	out, err := Render(tmpl, map[string]string{"name": "Ada", "topic": "logic"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.User != "Hello Ada, about logic" {
		t.Fatalf("unexpected user render: %q", out.User)
	}
	if out.System != "sys logic" {
		t.Fatalf("unexpected system render: %q", out.System)
	}
}

func TestRegisterDefaultsCoversServiceTemplates(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	for _, name := range []string{LogicToNLAnswer, LogicTraceToNL, ExplainPrologQuery, RulesToNLDirect} {
		if _, err := r.Get(name); err != nil {
			t.Fatalf("expected default template %s to be registered: %v", name, err)
		}
	}
}

func TestLoadDirOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	content := "name: LOGIC_TO_NL_ANSWER\nsystem: custom system\nuser: \"custom {{naturalLanguageQuestion}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "answer.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	RegisterDefaults(r)
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	tmpl, err := r.Get(LogicToNLAnswer)
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.System != "custom system" {
		t.Fatalf("expected override to take effect, got %q", tmpl.System)
	}
}

func TestListSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(Template{Name: "Z"})
	r.Register(Template{Name: "A"})
	list := r.List()
	if len(list) != 2 || list[0].Name != "A" || list[1].Name != "Z" {
		t.Fatalf("expected sorted list, got %+v", list)
	}
}
