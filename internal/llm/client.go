package llm

import (
	"context"
	"time"
)

// Client is the completion capability the translator loop talks to.
// Implementations wrap a hosted chat-completion endpoint.
type Client interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error)

	// Chat produces a completion for a message history.
	Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error)

	// Name returns the model name the client is configured for.
	Name() string
}

// KeyValidator is implemented by clients that can verify their credential
// without running a completion. A rejected key is terminal for the whole
// session: no translation is attempted.
type KeyValidator interface {
	CheckAPIKey(ctx context.Context) error
}

// Config holds client construction settings.
type Config struct {
	APIKey      string        // API secret
	BaseURL     string        // API base URL
	Model       string        // model name
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // transport-level retry attempts
	MaxTokens   int           // completion token budget, 0 leaves the provider default
	Temperature float32       // sampling temperature
}

// DefaultConfig returns the settings used when no option overrides them.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     defaultOpenAIEndpoint,
		Model:       ModelGPT4oMini,
		Timeout:     120 * time.Second,
		MaxRetries:  3,
		Temperature: 0, // deterministic output for translation
	}
}

// Option mutates a Config during client construction.
type Option func(*Config)

// WithAPIKey sets the API secret.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) { c.APIKey = apiKey }
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithMaxRetries sets the transport-level retry attempts.
func WithMaxRetries(retries int) Option {
	return func(c *Config) { c.MaxRetries = retries }
}

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(tokens int) Option {
	return func(c *Config) { c.MaxTokens = tokens }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float32) Option {
	return func(c *Config) { c.Temperature = temp }
}

// NewConfig applies options on top of the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// GenerateOptions are per-request overrides.
type GenerateOptions struct {
	MaxTokens   *int
	Temperature *float32
}

// GenerateOption mutates per-request options.
type GenerateOption func(*GenerateOptions)

// WithGenerateMaxTokens overrides the token budget for one request.
func WithGenerateMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) { o.MaxTokens = &tokens }
}

// WithGenerateTemperature overrides the temperature for one request.
func WithGenerateTemperature(temp float32) GenerateOption {
	return func(o *GenerateOptions) { o.Temperature = &temp }
}

// Factory builds a Client from options.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient registers a provider factory under a name.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient builds a client for a registered provider.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewLLMError(ErrCodeInvalidRequest, "llm provider not registered: "+name)
	}
	return factory(opts...)
}
