package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"
)

// LLM provider names accepted by -llm-provider.
const (
	ProviderKeyword = "keyword"
	ProviderClaude  = "claude"
	ProviderOpenAI  = "openai"
)

// Execution backend names accepted by -backend.
const (
	BackendMock = "mock"
	BackendHTTP = "http"
)

const maxBodyLimit = 10 << 20

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	MaxBodyBytes          int64

	LLMProvider     string
	ClaudeAPIKey    string
	ClaudeModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIReferer   string
	ClassifyTimeout time.Duration

	SlackWebhookURL string
	SlackRate       float64

	Backend      string
	BackendURL   string
	BackendToken string
	MockLatency  time.Duration
	ExecTimeout  time.Duration
	BatchLimit   int

	NotifyOnAssign   bool
	AutoRemediate    bool
	AdvanceOnSuccess bool
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", 1<<20, "maximum ingestion request body size in bytes")

	fs.StringVar(&c.LLMProvider, "llm-provider", ProviderKeyword, "analysis provider: keyword, claude or openai")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.OpenAIAPIKey, "openai-api-key", "", "API key for the OpenAI-compatible provider")
	fs.StringVar(&c.OpenAIModel, "openai-model", "openai/gpt-4o-mini", "model name for the OpenAI-compatible provider")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", "https://openrouter.ai/api/v1", "base URL of the OpenAI-compatible API")
	fs.StringVar(&c.OpenAIReferer, "openai-referer", "http://localhost:8080", "HTTP-Referer sent to OpenRouter for app attribution (empty = not sent)")
	fs.DurationVar(&c.ClassifyTimeout, "classify-timeout", 30*time.Second, "timeout for each normalization or classification call")

	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for notifications (empty = disabled)")
	fs.Float64Var(&c.SlackRate, "slack-rate", 1, "maximum Slack webhook calls per second (0 = unlimited)")

	fs.StringVar(&c.Backend, "backend", BackendMock, "execution backend: mock or http")
	fs.StringVar(&c.BackendURL, "backend-url", "", "remote executor URL (required for -backend=http)")
	fs.StringVar(&c.BackendToken, "backend-token", "", "bearer token sent to the remote executor")
	fs.DurationVar(&c.MockLatency, "mock-latency", 500*time.Millisecond, "simulated latency of the mock backend")
	fs.DurationVar(&c.ExecTimeout, "exec-timeout", 10*time.Second, "timeout for each execution backend call")
	fs.IntVar(&c.BatchLimit, "batch-limit", 4, "maximum concurrent dispatches when executing all incidents (0 = unbounded)")

	fs.BoolVar(&c.NotifyOnAssign, "notify-on-assign", true, "send an assignment notification for every created incident")
	fs.BoolVar(&c.AutoRemediate, "auto-remediate", false, "dispatch the remediation action right after creation")
	fs.BoolVar(&c.AdvanceOnSuccess, "advance-on-success", false, "move open incidents to investigating after a successful dispatch")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.MaxBodyBytes <= 0 || c.MaxBodyBytes > maxBodyLimit {
		errs = append(errs, fmt.Errorf("invalid MAX_BODY_BYTES %d (must be 1..%d)", c.MaxBodyBytes, maxBodyLimit))
	}

	switch c.LLMProvider {
	case ProviderKeyword:
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required for the claude provider"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required for the claude provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
		if c.OpenAIModel == "" {
			errs = append(errs, errors.New("OPENAI_MODEL is required for the openai provider"))
		}
		if err := validHTTPURL(c.OpenAIBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid OPENAI_BASE_URL: %w", err))
		}
		if c.OpenAIReferer != "" {
			if err := validHTTPURL(c.OpenAIReferer); err != nil {
				errs = append(errs, fmt.Errorf("invalid OPENAI_REFERER: %w", err))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q (must be keyword, claude or openai)", c.LLMProvider))
	}

	if c.ClassifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid CLASSIFY_TIMEOUT %s (must be positive)", c.ClassifyTimeout))
	}

	if c.SlackWebhookURL != "" {
		if err := validHTTPURL(c.SlackWebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid SLACK_WEBHOOK_URL: %w", err))
		}
	}
	if c.SlackRate < 0 {
		errs = append(errs, fmt.Errorf("invalid SLACK_RATE %g (must be >= 0)", c.SlackRate))
	}

	switch c.Backend {
	case BackendMock:
		if c.MockLatency < 0 {
			errs = append(errs, fmt.Errorf("invalid MOCK_LATENCY %s (must be >= 0)", c.MockLatency))
		}
	case BackendHTTP:
		if err := validHTTPURL(c.BackendURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid BACKEND_URL: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid BACKEND %q (must be mock or http)", c.Backend))
	}

	if c.ExecTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid EXEC_TIMEOUT %s (must be positive)", c.ExecTimeout))
	}
	if c.BatchLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid BATCH_LIMIT %d (must be >= 0)", c.BatchLimit))
	}

	if c.AdvanceOnSuccess && !c.AutoRemediate {
		errs = append(errs, errors.New("ADVANCE_ON_SUCCESS requires AUTO_REMEDIATE"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
