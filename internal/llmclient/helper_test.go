package llmclient

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/dashwatch-cli/internal/config"
)

func setupTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

func getValidLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.5-flash",
		APIKey:     "test-api-key",
		APITimeout: 10 * time.Second,
		MaxTokens:  4096,
	}
}
