// Package prompt is the Prompt Registry (spec.md §6): named `{system, user}`
// templates with `{{placeholder}}` markers, loaded once at startup and
// treated as read-only process-wide thereafter (spec.md §5 "Shared
// resources"). Modeled on the teacher's internal/prompt/loader.go YAML
// ingestion, simplified from its runtime SQLite-atom pipeline to the static
// template set this spec actually calls for.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/automenta/mcr/internal/mcrerrors"
	"gopkg.in/yaml.v3"
)

// Template is one named prompt pair. System and User may each contain
// {{placeholder}} markers resolved by Render.
type Template struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Rendered is the result of filling a Template's placeholders, carrying
// both forms so debugFormatPrompt (spec.md §4.4) can show its work.
type Rendered struct {
	Template Template
	System   string
	User     string
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Registry holds the process's loaded templates, keyed by name.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry returns an empty Registry; callers load templates with
// Register, LoadFile, or LoadDir before serving requests.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds or replaces a template by name.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Name] = t
}

// LoadDir loads every *.yaml/*.yml file in dir, each holding one or more
// templates, mirroring the teacher's directory-of-YAML-atoms convention.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("prompt: failed to read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads the templates defined in a single YAML file. The file may
// hold either one template document or a `templates:` list of them.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("prompt: failed to read %s: %w", path, err)
	}

	var multi struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &multi); err == nil && len(multi.Templates) > 0 {
		for _, t := range multi.Templates {
			r.Register(t)
		}
		return nil
	}

	var single Template
	if err := yaml.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("prompt: failed to parse %s: %w", path, err)
	}
	if single.Name == "" {
		return fmt.Errorf("prompt: %s defines no named template", path)
	}
	r.Register(single)
	return nil
}

// Get returns the named template, or PROMPT_TEMPLATE_NOT_FOUND.
func (r *Registry) Get(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	if !ok {
		return Template{}, mcrerrors.New(mcrerrors.PromptTemplateNotFound, "no such prompt template: "+name)
	}
	return t, nil
}

// List returns all registered templates sorted by name, for getPrompts().
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Render fills name's placeholders from vars. Per spec.md §6, an unknown
// placeholder in the user prompt raises PROMPT_FORMATTING_FAILED naming it;
// the system prompt is filled best-effort since the Service never surfaces
// it directly to the caller.
func Render(t Template, vars map[string]string) (Rendered, error) {
	user, missing := substitute(t.User, vars)
	if missing != "" {
		return Rendered{}, mcrerrors.New(mcrerrors.PromptFormattingFailed,
			fmt.Sprintf("template %q: missing placeholder %q", t.Name, missing))
	}
	system, _ := substitute(t.System, vars)
	return Rendered{Template: t, System: system, User: user}, nil
}

// RenderByName looks up name in r and renders it, composing the two
// PROMPT_* error cases debugFormatPrompt must distinguish.
func (r *Registry) RenderByName(name string, vars map[string]string) (Rendered, error) {
	t, err := r.Get(name)
	if err != nil {
		return Rendered{}, err
	}
	return Render(t, vars)
}

// substitute replaces every {{name}} in text with vars[name]. The first
// name with no entry in vars is returned as missing; substitution still
// proceeds for the remaining placeholders so callers can report one clear
// error rather than truncating the template mid-render.
func substitute(text string, vars map[string]string) (string, string) {
	missing := ""
	result := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return val
	})
	return result, missing
}
