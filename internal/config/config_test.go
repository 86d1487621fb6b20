package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CHATBOT_CONFIG", "PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"AWS_REGION", "HISTORY_TABLE", "PARAM_PREFIX", "CLOUDWATCH_ENABLED",
	"LOG_GROUP", "LOG_STREAM", "OLLAMA_BINARY", "OLLAMA_MODEL", "MODEL_TIMEOUT",
	"DEFAULT_USER_ID", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "Tanuja", cfg.DefaultUserID)
	require.Equal(t, "ChatHistory", cfg.HistoryTable)
	require.Equal(t, "/ai-chatbot/logs", cfg.LogGroup)
	require.Equal(t, "chatbot-stream", cfg.LogStream)
	require.Equal(t, "llama3.2:1b", cfg.OllamaModel)
	require.True(t, cfg.CloudWatchEnabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_TIMEOUT", "45s")
	t.Setenv("CLOUDWATCH_ENABLED", "false")
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("DEFAULT_USER_ID", "guest")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, 45*time.Second, cfg.ModelTimeout)
	require.False(t, cfg.CloudWatchEnabled)
	require.Equal(t, "mistral", cfg.OllamaModel)
	require.Equal(t, "guest", cfg.DefaultUserID)
}

func TestLoad_InvalidEnvValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_TIMEOUT", "soon")
	t.Setenv("CLOUDWATCH_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 120*time.Second, cfg.ModelTimeout)
	require.True(t, cfg.CloudWatchEnabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "chatbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
history_table: TurnsTable
model_timeout: 30s
ollama_model: phi3
`), 0o600))
	t.Setenv("CHATBOT_CONFIG", path)
	t.Setenv("OLLAMA_MODEL", "gemma")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, "TurnsTable", cfg.HistoryTable)
	require.Equal(t, 30*time.Second, cfg.ModelTimeout)
	require.Equal(t, "gemma", cfg.OllamaModel)
	require.Equal(t, "ap-south-1", cfg.AWSRegion)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATBOT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: read")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))
	t.Setenv("CHATBOT_CONFIG", path)
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "config: parse")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.HistoryTable = " "
	cfg.ModelTimeout = -time.Second
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "history table")
	require.Contains(t, err.Error(), "model timeout")

	require.NoError(t, Default().Validate())
}

type fakeParams struct {
	vals map[string]string
	err  error
}

func (f *fakeParams) GetOr(_ context.Context, key, fallback string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if v, ok := f.vals[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func TestApplyParams(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyParams(context.Background(), &fakeParams{vals: map[string]string{ModelParamKey: "llama3.1:8b"}}))
	require.Equal(t, "llama3.1:8b", cfg.OllamaModel)

	cfg = Default()
	require.NoError(t, cfg.ApplyParams(context.Background(), &fakeParams{}))
	require.Equal(t, "llama3.2:1b", cfg.OllamaModel)

	err := Default().ApplyParams(context.Background(), &fakeParams{err: errors.New("throttled")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model parameter")
}
