// Package config provides environment configuration for the chatbot.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserID is used when a request carries no user id. Requests are not
// authenticated, so every anonymous caller shares this history.
const DefaultUserID = "Tanuja"

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port               string        `yaml:"port"`
	ServerReadTimeout  time.Duration `yaml:"server_read_timeout"`
	ServerWriteTimeout time.Duration `yaml:"server_write_timeout"`

	// AWS settings
	AWSRegion    string `yaml:"aws_region"`
	HistoryTable string `yaml:"history_table"`
	ParamPrefix  string `yaml:"param_prefix"`

	// Activity log
	CloudWatchEnabled bool   `yaml:"cloudwatch_enabled"`
	LogGroup          string `yaml:"log_group"`
	LogStream         string `yaml:"log_stream"`

	// Model
	OllamaBinary string        `yaml:"ollama_binary"`
	OllamaModel  string        `yaml:"ollama_model"`
	ModelTimeout time.Duration `yaml:"model_timeout"`

	DefaultUserID string `yaml:"default_user_id"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:               "8080",
		ServerReadTimeout:  30 * time.Second,
		ServerWriteTimeout: 180 * time.Second,
		AWSRegion:          "ap-south-1",
		HistoryTable:       "ChatHistory",
		CloudWatchEnabled:  true,
		LogGroup:           "/ai-chatbot/logs",
		LogStream:          "chatbot-stream",
		OllamaBinary:       "ollama",
		OllamaModel:        "llama3.2:1b",
		ModelTimeout:       120 * time.Second,
		DefaultUserID:      DefaultUserID,
		LogLevel:           "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CHATBOT_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CHATBOT_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.ServerReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.ServerReadTimeout)
	c.ServerWriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.ServerWriteTimeout)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.HistoryTable = getEnv("HISTORY_TABLE", c.HistoryTable)
	c.ParamPrefix = getEnv("PARAM_PREFIX", c.ParamPrefix)

	c.CloudWatchEnabled = getBoolEnv("CLOUDWATCH_ENABLED", c.CloudWatchEnabled)
	c.LogGroup = getEnv("LOG_GROUP", c.LogGroup)
	c.LogStream = getEnv("LOG_STREAM", c.LogStream)

	c.OllamaBinary = getEnv("OLLAMA_BINARY", c.OllamaBinary)
	c.OllamaModel = getEnv("OLLAMA_MODEL", c.OllamaModel)
	c.ModelTimeout = getDurationEnv("MODEL_TIMEOUT", c.ModelTimeout)

	c.DefaultUserID = getEnv("DEFAULT_USER_ID", c.DefaultUserID)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate reports settings the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if strings.TrimSpace(c.HistoryTable) == "" {
		errs = append(errs, errors.New("history table must not be empty"))
	}
	if strings.TrimSpace(c.OllamaBinary) == "" {
		errs = append(errs, errors.New("ollama binary must not be empty"))
	}
	if strings.TrimSpace(c.OllamaModel) == "" {
		errs = append(errs, errors.New("ollama model must not be empty"))
	}
	if c.ModelTimeout < 0 {
		errs = append(errs, errors.New("model timeout must not be negative"))
	}
	if strings.TrimSpace(c.DefaultUserID) == "" {
		errs = append(errs, errors.New("default user id must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ParamSource reads optional overrides from a parameter store.
type ParamSource interface {
	GetOr(ctx context.Context, key, fallback string) (string, error)
}

// ModelParamKey is the parameter (below PARAM_PREFIX) that overrides the model.
const ModelParamKey = "config/model"

// ApplyParams overlays values held in the parameter store.
func (c *Config) ApplyParams(ctx context.Context, ps ParamSource) error {
	model, err := ps.GetOr(ctx, ModelParamKey, c.OllamaModel)
	if err != nil {
		return fmt.Errorf("config: load model parameter: %w", err)
	}
	c.OllamaModel = model
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
