package main

import (
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/analysis"
	wc "github.com/linnemanlabs/warden/internal/cfg"
	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/llm/claude"
	"github.com/linnemanlabs/warden/internal/llm/openai"
	"github.com/linnemanlabs/warden/internal/remediation"
	"github.com/linnemanlabs/warden/internal/remediation/httpbackend"
	"github.com/linnemanlabs/warden/internal/remediation/mockbackend"
)

const openRouterTitle = "Warden Incident Manager"

// newProvider returns the configured LLM provider, or nil for keyword mode.
func newProvider(c wc.Config) analysis.Provider {
	switch c.LLMProvider {
	case wc.ProviderClaude:
		return claude.New(c.ClaudeAPIKey, c.ClaudeModel)
	case wc.ProviderOpenAI:
		return openai.New(c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIBaseURL, openai.Attribution{
			Referer: c.OpenAIReferer,
			Title:   openRouterTitle,
		})
	default:
		return nil
	}
}

// newStages builds the analysis half of the pipeline. Without a provider the
// normalizer extracts fields and the keyword table classifies.
func newStages(c wc.Config, provider analysis.Provider, roster incident.Roster, hooks analysis.CallHooks) (incident.Normalizer, incident.Classifier) {
	normalizer := analysis.NewNormalizer(provider, c.ClassifyTimeout, hooks)
	if provider == nil {
		return normalizer, analysis.NewKeywordClassifier(roster)
	}
	return normalizer, analysis.NewLLMClassifier(provider, roster, c.ClassifyTimeout, hooks)
}

func newBackend(c wc.Config, L log.Logger) remediation.Backend {
	if c.Backend == wc.BackendHTTP {
		return httpbackend.New(c.BackendURL, c.BackendToken, c.ExecTimeout)
	}
	return mockbackend.New(L, c.MockLatency)
}
