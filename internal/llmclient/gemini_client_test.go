package llmclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dashwatch-cli/api/schemas"
)

// -- Test Setup Helpers --

// setupGeminiClient rigs up a GeminiClient pointed at a mock HTTP server.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			t.Log("Warning: Unexpected HTTP request in test.")
			w.WriteHeader(http.StatusNotFound)
		}
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := getValidLLMConfig()
	cfg.Endpoint = server.URL

	client, err := NewGeminiClient(cfg, setupTestLogger(t))
	require.NoError(t, err, "NewGeminiClient initialization failed")

	// Fail fast on unexpected hangs.
	client.httpClient.Timeout = 5 * time.Second
	return client
}

func createTestRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "System prompt instructions.",
		UserPrompt:   "User query.",
		Options: schemas.GenerationOptions{
			Temperature: 0.2,
		},
	}
}

func successBody(text string) string {
	return fmt.Sprintf(`{
		"candidates": [{"content": {"parts": [{"text": %q}], "role": "model"}, "finishReason": "STOP"}],
		"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15}
	}`, text)
}

// -- Initialization --

func TestNewGeminiClient_Success(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.Endpoint = ""

	client, err := NewGeminiClient(cfg, setupTestLogger(t))

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, cfg.APIKey, client.apiKey)
	assert.Equal(t, cfg.APITimeout, client.httpClient.Timeout)
	expectedEndpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", cfg.Model)
	assert.Equal(t, expectedEndpoint, client.endpoint)
}

func TestNewGeminiClient_Failure_MissingAPIKey(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.APIKey = ""

	client, err := NewGeminiClient(cfg, setupTestLogger(t))

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "API Key is required")
}

// -- Request Payload --

func TestBuildRequestPayload_Standard(t *testing.T) {
	client := setupGeminiClient(t, nil)
	client.config.TopP = 0.9
	client.config.TopK = 50
	client.config.MaxTokens = 2048
	client.config.SafetyFilters = map[string]string{"CAT_A": "BLOCK_LOW"}

	payload := client.buildRequestPayload(createTestRequest())

	require.Len(t, payload.Contents, 1)
	assert.Equal(t, "user", payload.Contents[0].Role)
	assert.Equal(t, "User query.", payload.Contents[0].Parts[0].Text)
	require.NotNil(t, payload.SystemInstruction)
	assert.Equal(t, "System prompt instructions.", payload.SystemInstruction.Parts[0].Text)
	assert.Equal(t, float32(0.9), payload.GenerationConfig.TopP)
	assert.Equal(t, 50, payload.GenerationConfig.TopK)
	assert.Equal(t, 2048, payload.GenerationConfig.MaxOutputTokens)
	assert.Empty(t, payload.GenerationConfig.ResponseMimeType)
	require.Len(t, payload.SafetySettings, 1)
	assert.Equal(t, "CAT_A", payload.SafetySettings[0].Category)
}

func TestBuildRequestPayload_ForceJSON(t *testing.T) {
	client := setupGeminiClient(t, nil)
	req := createTestRequest()
	req.Options.ForceJSONFormat = true

	payload := client.buildRequestPayload(req)

	assert.Equal(t, "application/json", payload.GenerationConfig.ResponseMimeType)
}

func TestBuildRequestPayload_NoSystemPrompt(t *testing.T) {
	client := setupGeminiClient(t, nil)
	req := createTestRequest()
	req.SystemPrompt = ""

	payload := client.buildRequestPayload(req)

	assert.Nil(t, payload.SystemInstruction)
}

// -- GenerateResponse --

func TestGenerateResponse_Success(t *testing.T) {
	var gotAPIKey string
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-goog-api-key")

		var payload geminiRequestPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "User query.", payload.Contents[0].Parts[0].Text)

		fmt.Fprint(w, successBody(`[{"name": "Sales", "selector": "#sales"}]`))
	})

	resp, err := client.GenerateResponse(t.Context(), createTestRequest())

	require.NoError(t, err)
	assert.Equal(t, `[{"name": "Sales", "selector": "#sales"}]`, resp)
	assert.Equal(t, "test-api-key", gotAPIKey)
}

func TestGenerateResponse_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, successBody("recovered"))
	})

	resp, err := client.GenerateResponse(t.Context(), createTestRequest())

	require.NoError(t, err)
	assert.Equal(t, "recovered", resp)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestGenerateResponse_PermanentOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "invalid request"}}`)
	})

	_, err := client.GenerateResponse(t.Context(), createTestRequest())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
	assert.Contains(t, err.Error(), "status 400")
}

func TestGenerateResponse_NoCandidates(t *testing.T) {
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	})

	_, err := client.GenerateResponse(t.Context(), createTestRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGenerateResponse_SafetyBlocked(t *testing.T) {
	var calls atomic.Int32
	client := setupGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": []}, "finishReason": "SAFETY"}]}`)
	})

	_, err := client.GenerateResponse(t.Context(), createTestRequest())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "safety blocks must not be retried")
	assert.Contains(t, err.Error(), "SAFETY")
}

// -- Factory --

func TestNewClient_Gemini(t *testing.T) {
	client, err := NewClient(getValidLLMConfig(), setupTestLogger(t))

	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, client)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.Provider = "openai"

	_, err := NewClient(cfg, setupTestLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
