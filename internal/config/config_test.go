package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"APP_NAME":          "jobscout",
		"APP_ENV":           "test",
		"HTTP_PORT":         "8080",
		"EMBEDDING_API_KEY": "sk-test",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, DefaultEmbeddingURL, cfg.Embedding.URL)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, 8000, cfg.Embedding.MaxChars)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 70, cfg.Matching.DefaultMinScore)
	assert.Equal(t, "email", cfg.Notification.Channel)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 600*time.Second, cfg.Redis.TTL)
}

func TestFromEnv_MissingRequired(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"APP_NAME": "x"}))
	require.Error(t, err)
	assert.True(t, IsMissingRequired(err))
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "EMBEDDING_API_KEY")
}

func TestFromEnv_OpenAIKeyFallback(t *testing.T) {
	env := baseEnv()
	delete(env, "EMBEDDING_API_KEY")
	env["OPENAI_API_KEY"] = "sk-openai"
	env["OPENAI_EMBEDDINGS_URL"] = "http://provider.local/v1/embeddings"

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Embedding.APIKey)
	assert.Equal(t, "http://provider.local/v1/embeddings", cfg.Embedding.URL)
}

func TestFromEnv_DurationsAcceptSeconds(t *testing.T) {
	env := baseEnv()
	env["REDIS_TTL"] = "30"
	env["NOTIFY_CLAIM_TTL"] = "45s"

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 45*time.Second, cfg.Notification.ClaimTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	env := baseEnv()
	env["EMBEDDING_DIMENSION"] = "abc"
	_, err := FromEnv(envMap(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_DIMENSION")

	env = baseEnv()
	env["MATCH_DEFAULT_MIN_SCORE"] = "101"
	_, err = FromEnv(envMap(env))
	require.Error(t, err)
}
