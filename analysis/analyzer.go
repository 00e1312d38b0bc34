package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jonwraymond/matchcache/observe"
	"github.com/jonwraymond/matchcache/resilience"
)

// Defaults for the DashScope OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModel   = "qwen-turbo"
)

// Error message used when the provider rejects a request.
const ErrMsgAPI = "AI API Error"

// ErrMissingAPIKey is returned by NewOpenAIAnalyzer without a credential.
var ErrMissingAPIKey = errors.New("analysis: api key is required")

// Analyzer scores a resume against a job description.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures are reported as error-kind Results, never as Go errors.
type Analyzer interface {
	Analyze(ctx context.Context, resume, jobDescription string) Result
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, resume, jobDescription string) Result

func (f AnalyzerFunc) Analyze(ctx context.Context, resume, jobDescription string) Result {
	return f(ctx, resume, jobDescription)
}

// Config configures the OpenAI-compatible analyzer.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// Timeout bounds each provider attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts includes the first call. Only 429, 5xx and network
	// failures are retried.
	MaxAttempts int `yaml:"max_attempts"`

	// RatePerSecond limits provider calls; zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second"`

	// MaxConcurrent bounds in-flight analyses in the HTTP server.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// OpenAIAnalyzer calls a chat completion endpoint and parses its JSON reply.
type OpenAIAnalyzer struct {
	client     openai.Client
	httpClient *http.Client
	model      string
	exec       *resilience.Executor
	logger     observe.Logger
	tracer     observe.Tracer

	// completeFn sends one prompt; tests replace it.
	completeFn func(ctx context.Context, prompt string) (string, error)
}

// Option configures an OpenAIAnalyzer.
type Option func(*OpenAIAnalyzer)

// WithLogger sets the analyzer logger.
func WithLogger(l observe.Logger) Option {
	return func(a *OpenAIAnalyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTracer sets the analyzer tracer.
func WithTracer(t observe.Tracer) Option {
	return func(a *OpenAIAnalyzer) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *OpenAIAnalyzer) {
		a.httpClient = c
	}
}

// NewOpenAIAnalyzer builds an analyzer for cfg.
func NewOpenAIAnalyzer(cfg Config, opts ...Option) (*OpenAIAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	a := &OpenAIAnalyzer{
		model:  cfg.Model,
		logger: observe.NopLogger(),
		tracer: observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(a)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		// Retries are owned by the resilience executor.
		option.WithMaxRetries(0),
	}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(a.httpClient))
	}
	a.client = openai.NewClient(clientOpts...)
	a.completeFn = a.complete

	execOpts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Jitter:       true,
			RetryIf:      resilience.IsRetryable,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				a.logger.Warn(context.Background(), "retrying analysis call",
					observe.F("attempt", attempt),
					observe.Err(err),
					observe.F("delay_ms", delay.Milliseconds()),
				)
			},
		})),
		resilience.WithTimeout(cfg.Timeout),
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		execOpts = append(execOpts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        cfg.RatePerSecond,
			Burst:       burst,
			WaitOnLimit: true,
			MaxWait:     cfg.Timeout,
		})))
	}
	a.exec = resilience.NewExecutor(execOpts...)

	return a, nil
}

// Analyze sends the prompt and converts every failure into an error Result.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, resume, jobDescription string) Result {
	ctx, span := a.tracer.StartSpan(ctx, observe.SpanAnalyze)

	prompt := BuildPrompt(resume, jobDescription)

	// An attempt abandoned by the timeout keeps running; only attempts whose
	// context is still live may publish a reply.
	var (
		mu      sync.Mutex
		content string
	)
	err := a.exec.Execute(ctx, func(ctx context.Context) error {
		c, err := a.completeFn(ctx, prompt)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
		content = c
		return nil
	})
	a.tracer.EndSpan(span, err)

	mu.Lock()
	reply := content
	mu.Unlock()

	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			a.logger.Error(ctx, "analysis provider rejected request",
				observe.F("status", apiErr.StatusCode),
				observe.Err(err),
			)
			return NewErrorResult(ErrMsgAPI, apiErr.Message)
		}
		a.logger.Error(ctx, "analysis call failed", observe.Err(err))
		return NewErrorResult(err.Error(), SummaryParseFailure)
	}

	res, err := ParseResponse(reply)
	if err != nil {
		a.logger.Warn(ctx, "analysis reply was not valid JSON", observe.Err(err))
		return NewErrorResult(err.Error(), SummaryParseFailure)
	}
	return res
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("analysis: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify marks rate limits, server errors and network failures retryable.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return resilience.MarkRetryable(err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.MarkRetryable(err)
	}
	return err
}

var _ Analyzer = (*OpenAIAnalyzer)(nil)
