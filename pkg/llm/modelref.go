package llm

import (
	"strings"
)

// Provider names produced by Resolve.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMistral   = "mistral"
)

// ModelRef is the resolved routing information for an inference provider.
// Provider may be empty, which means "unspecified/direct model" — callers
// treat that as a routing signal, not an error.
type ModelRef struct {
	Provider  string
	Model     string
	Separator string
}

// FullIdentifier reconstructs the identifier string. Re-resolving the result
// yields an equivalent ModelRef.
func (r ModelRef) FullIdentifier() string {
	if r.Provider == "" {
		return r.Model
	}
	return r.Provider + r.Separator + r.Model
}

// DisplayName returns a human-readable form, e.g. "openai gpt-4o".
func (r ModelRef) DisplayName() string {
	if r.Provider == "" {
		return r.Model
	}
	return r.Provider + " " + r.Model
}

// verifiedModels maps well-known bare model names (lower-cased) to their
// provider. Some ecosystems publish model names without a provider prefix;
// this closed allow-list lets Resolve route them anyway. Extend the table to
// support a new provider, the resolution logic does not change.
var verifiedModels = map[string]string{
	// OpenAI
	"gpt-4":       ProviderOpenAI,
	"gpt-4-turbo": ProviderOpenAI,
	"gpt-4o":      ProviderOpenAI,
	"gpt-4o-mini": ProviderOpenAI,
	"o1":          ProviderOpenAI,
	"o1-mini":     ProviderOpenAI,
	"o3":          ProviderOpenAI,
	"o3-mini":     ProviderOpenAI,
	"o4-mini":     ProviderOpenAI,

	// Anthropic
	"claude-2":           ProviderAnthropic,
	"claude-2.1":         ProviderAnthropic,
	"claude-instant-1.2": ProviderAnthropic,
	"claude-3-opus":      ProviderAnthropic,
	"claude-3-sonnet":    ProviderAnthropic,
	"claude-3-haiku":     ProviderAnthropic,
	"claude-3-5-sonnet":  ProviderAnthropic,
	"claude-3-5-haiku":   ProviderAnthropic,
	"claude-3-7-sonnet":  ProviderAnthropic,
	"claude-sonnet-4-0":  ProviderAnthropic,
	"claude-opus-4-0":    ProviderAnthropic,

	// Mistral
	"mistral-tiny":         ProviderMistral,
	"mistral-small":        ProviderMistral,
	"mistral-medium":       ProviderMistral,
	"mistral-large-latest": ProviderMistral,
	"open-mistral-7b":      ProviderMistral,
	"open-mixtral-8x7b":    ProviderMistral,
	"open-mixtral-8x22b":   ProviderMistral,
	"codestral-latest":     ProviderMistral,
}

// Resolve parses a free-form model identifier into a ModelRef. It never
// fails: degenerate inputs produce a degenerate ref with empty fields.
//
// Resolution order:
//  1. "provider/model" — split on the first slash.
//  2. "provider.model" — split on the first dot, unless the remainder starts
//     with a run of digits (version suffixes like "claude-2.1" must not be
//     misread as a provider split).
//  3. Bare names in the verified-model table, case-insensitive.
//  4. Anything else is an unknown-provider model, returned verbatim.
func Resolve(identifier string) ModelRef {
	if identifier == "" {
		return ModelRef{}
	}

	if provider, model, ok := strings.Cut(identifier, "/"); ok {
		return ModelRef{Provider: provider, Model: model, Separator: "/"}
	}

	if parts := strings.Split(identifier, "."); len(parts) > 1 && !allDigits(parts[1]) {
		return ModelRef{
			Provider:  parts[0],
			Model:     strings.Join(parts[1:], "."),
			Separator: ".",
		}
	}

	if provider, ok := verifiedModels[strings.ToLower(identifier)]; ok {
		return ModelRef{Provider: provider, Model: identifier, Separator: "/"}
	}

	return ModelRef{Model: identifier}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
