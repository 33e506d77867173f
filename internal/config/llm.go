package config

import "time"

// LLMConfig configures the LLM Adapter used by the Strategy Executor's
// LLM_Call nodes. MCR speaks a single `generate(system, user, options)`
// contract (spec.md §6); this struct only carries what's needed to
// construct and authenticate that adapter — wire protocol details are the
// adapter implementation's concern, out of core scope.
type LLMConfig struct {
	Provider string `yaml:"provider"` // zai, anthropic, openai, gemini, xai, openrouter
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ValidProviders lists the LLM providers MCR knows how to address.
var ValidProviders = []string{"zai", "anthropic", "openai", "gemini", "xai", "openrouter"}

// Duration parses Timeout, falling back to 120s on a malformed value.
func (c LLMConfig) Duration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
