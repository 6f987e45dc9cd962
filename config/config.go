// Package config loads server settings from a .env file, an optional YAML
// file, the environment and command-line flags, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"doodle-server/generation"
	"doodle-server/stores"
)

type (
	Config struct {
		Listen     string            `yaml:"listen"`
		LogLevel   string            `yaml:"logLevel"`
		LogFormat  string            `yaml:"logFormat"`
		JWTSecret  string            `yaml:"jwtSecret"`
		Sessions   SessionConfig     `yaml:"sessions"`
		IssueToken string            `yaml:"-"`
		Storage    stores.Config     `yaml:"storage"`
		Generation generation.Config `yaml:"generation"`
	}

	// SessionConfig controls how long idle sketches are kept in memory.
	SessionConfig struct {
		IdleTimeout   time.Duration `yaml:"idleTimeout"`
		SweepSchedule string        `yaml:"sweepSchedule"`
	}
)

func Default() *Config {
	return &Config{
		Listen:    ":3002",
		LogLevel:  "info",
		LogFormat: "text",
		Sessions: SessionConfig{
			IdleTimeout:   2 * time.Hour,
			SweepSchedule: "@every 10m",
		},
		Storage: stores.Config{Type: "memory"},
		Generation: generation.Config{
			Provider:       generation.ProviderNone,
			PromptTemplate: generation.DefaultPromptTemplate,
			Timeout:        2 * time.Minute,
		},
	}
}

// Load builds the configuration for the command line args (without the
// program name).
func Load(args []string) (*Config, error) {
	fset := flag.NewFlagSet("doodle-server", flag.ContinueOnError)
	configPath := fset.String("config", "", "Path to a YAML configuration file")
	envFile := fset.String("envfile", ".env", "Path to a .env file")
	listen := fset.String("listen", ":3002", "Set the server listen address")
	logLevel := fset.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	issueToken := fset.String("issue-token", "", "Print a week-long API token for this subject and exit")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	cfg.IssueToken = *issueToken
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Listen, "LISTEN_ADDRESS")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.JWTSecret, "JWT_SECRET")

	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.LocalPath, "LOCAL_STORAGE_PATH")
	setString(&c.Storage.DataSourceName, "DATA_SOURCE_NAME")
	setString(&c.Storage.BucketName, "S3_BUCKET_NAME")

	g := &c.Generation
	setString(&g.Provider, "GENERATION_PROVIDER")
	setString(&g.PromptTemplate, "GENERATION_PROMPT_TEMPLATE")
	setString(&g.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&g.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&g.OpenAI.Model, "OPENAI_IMAGE_MODEL")
	setString(&g.OpenAI.Size, "OPENAI_IMAGE_SIZE")
	setString(&g.Bedrock.Region, "AWS_REGION")
	setString(&g.Bedrock.ModelID, "BEDROCK_MODEL_ID")
	setString(&g.Webhook.URL, "WEBHOOK_URL")
	setString(&g.Webhook.Token, "WEBHOOK_TOKEN")
	setString(&g.Webhook.ClientID, "WEBHOOK_CLIENT_ID")
	setString(&g.Webhook.ClientSecret, "WEBHOOK_CLIENT_SECRET")
	setString(&g.Webhook.TokenURL, "WEBHOOK_TOKEN_URL")
	if v := os.Getenv("WEBHOOK_SCOPES"); v != "" {
		g.Webhook.Scopes = strings.Split(v, ",")
	}
	setString(&c.Sessions.SweepSchedule, "SESSION_SWEEP_SCHEDULE")

	var errs []error
	errs = append(errs,
		setDuration(&g.Timeout, "GENERATION_TIMEOUT"),
		setDuration(&c.Sessions.IdleTimeout, "SESSION_IDLE_TIMEOUT"),
		setInt(&g.RateLimit.PerMinute, "GENERATION_RATE_PER_MINUTE"),
		setInt(&g.RateLimit.Burst, "GENERATION_RATE_BURST"),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
