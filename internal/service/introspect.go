package service

import (
	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/prompt"
)

// GetPrompts implements spec.md §4.4 getPrompts: the full prompt registry.
func (s *Service) GetPrompts() []prompt.Template {
	return s.prompts.List()
}

// DebugFormatPrompt implements spec.md §4.4 debugFormatPrompt: renders a
// named template against vars, returning both the raw and rendered forms.
// Unknown template names and missing placeholders are explicit errors
// surfaced through the envelope.
func (s *Service) DebugFormatPrompt(name string, vars map[string]string) *PromptFormatResult {
	tmpl, err := s.prompts.Get(name)
	if err != nil {
		return &PromptFormatResult{Envelope: mcrerrors.Fail(err)}
	}
	rendered, err := prompt.Render(tmpl, vars)
	if err != nil {
		return &PromptFormatResult{Envelope: mcrerrors.Fail(err)}
	}
	return &PromptFormatResult{
		Envelope:       mcrerrors.Ok("prompt rendered"),
		RawSystem:      tmpl.System,
		RawUser:        tmpl.User,
		RenderedSystem: rendered.System,
		RenderedUser:   rendered.User,
	}
}
