// Package generation implements the image-generation collaborator: the
// providers that turn a sketch and a prompt into an image, and the
// decorators that guard them.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"doodle-server/core"
)

const (
	ProviderNone    = "none"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderWebhook = "webhook"
)

type (
	// Config selects and configures the generation provider.
	Config struct {
		Provider       string        `yaml:"provider"`
		PromptTemplate string        `yaml:"promptTemplate"`
		Timeout        time.Duration `yaml:"timeout"`
		OpenAI         OpenAIConfig  `yaml:"openai"`
		Bedrock        BedrockConfig `yaml:"bedrock"`
		Webhook        WebhookConfig `yaml:"webhook"`
		Breaker        BreakerConfig `yaml:"breaker"`
		RateLimit      RateConfig    `yaml:"rateLimit"`
	}

	OpenAIConfig struct {
		APIKey  string `yaml:"apiKey"`
		BaseURL string `yaml:"baseURL"`
		Model   string `yaml:"model"`
		Size    string `yaml:"size"`
	}

	BedrockConfig struct {
		Region  string  `yaml:"region"`
		ModelID string  `yaml:"modelId"`
		Width   int     `yaml:"width"`
		Height  int     `yaml:"height"`
		CFG     float64 `yaml:"cfgScale"`
	}

	WebhookConfig struct {
		URL          string   `yaml:"url"`
		Token        string   `yaml:"token"`
		ClientID     string   `yaml:"clientId"`
		ClientSecret string   `yaml:"clientSecret"`
		TokenURL     string   `yaml:"tokenURL"`
		Scopes       []string `yaml:"scopes"`
	}

	BreakerConfig struct {
		MaxFailures uint32        `yaml:"maxFailures"`
		Timeout     time.Duration `yaml:"timeout"`
		Interval    time.Duration `yaml:"interval"`
	}

	RateConfig struct {
		PerMinute int `yaml:"perMinute"`
		Burst     int `yaml:"burst"`
	}
)

// DefaultPromptTemplate frames the user's prompt for the providers.
const DefaultPromptTemplate = "Turn this rough sketch into a polished image: %s"

// New builds the configured provider wrapped in the prompt template, the
// circuit breaker and, when configured, the rate limiter.
func New(ctx context.Context, cfg Config) (core.Generator, error) {
	var (
		gen core.Generator
		err error
	)
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderNone:
		logrus.Warn("no generation provider configured")
		return Unconfigured{}, nil
	case ProviderOpenAI:
		gen, err = NewOpenAI(cfg.OpenAI)
	case ProviderBedrock:
		gen, err = NewBedrock(ctx, cfg.Bedrock)
	case ProviderWebhook:
		gen, err = NewWebhook(ctx, cfg.Webhook, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", provider, err)
	}

	gen = WithTemplate(gen, cfg.PromptTemplate)
	gen = WithBreaker(gen, provider, cfg.Breaker)
	if cfg.RateLimit.PerMinute > 0 {
		gen = WithRateLimit(gen, cfg.RateLimit)
	}
	logrus.WithField("provider", provider).Info("use generation provider")
	return gen, nil
}

// Unconfigured fails every request.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, core.GenerationRequest) (*core.GeneratedImage, error) {
	return nil, core.ErrNotConfigured
}

type templated struct {
	inner    core.Generator
	template string
}

// WithTemplate substitutes the prompt for %s in template before calling
// inner. An empty template passes the prompt through unchanged.
func WithTemplate(inner core.Generator, template string) core.Generator {
	if template == "" {
		return inner
	}
	return &templated{inner: inner, template: template}
}

func (t *templated) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	if strings.Contains(t.template, "%s") {
		req.Prompt = strings.Replace(t.template, "%s", req.Prompt, 1)
	} else {
		req.Prompt = t.template + " " + req.Prompt
	}
	return t.inner.Generate(ctx, req)
}
