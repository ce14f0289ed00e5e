package gateway_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInferenceEndpointsWithoutBackend verifies how the generation endpoints
// fail when the inference server is down: authenticated callers get a clean
// 502, validation still runs first, and anonymous callers never get as far
// as the backend.
func TestInferenceEndpointsWithoutBackend(t *testing.T) {
	env := setupEnv(t)

	token := fetchUserToken(t, env, "alice")

	t.Run("summarize answers 502", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodPost, "/v1/summarize", token, map[string]any{
			"text": "A long report that will never reach a model.",
		})
		require.Equal(t, http.StatusBadGateway, status, "body: %v", body)
		require.Equal(t, "inference_unavailable", body["error"])
	})

	t.Run("validation runs before the backend call", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodPost, "/v1/summarize", token, map[string]any{
			"text": "   ",
		})
		require.Equal(t, http.StatusBadRequest, status, "body: %v", body)
		require.Equal(t, "invalid_request", body["error"])
	})

	t.Run("query answers 502", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodPost, "/v1/query", token, map[string]any{
			"prompt": "What is in the report?",
		})
		require.Equal(t, http.StatusBadGateway, status, "body: %v", body)
		require.Equal(t, "inference_unavailable", body["error"])
	})

	t.Run("chat answers 502", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodPost, "/v1/chat", token, map[string]any{
			"messages": []map[string]string{{"role": "user", "content": "hello"}},
		})
		require.Equal(t, http.StatusBadGateway, status, "body: %v", body)
		require.Equal(t, "inference_unavailable", body["error"])
	})

	t.Run("models answers 502", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodGet, "/v1/models", token, nil)
		require.Equal(t, http.StatusBadGateway, status, "body: %v", body)
	})

	t.Run("anonymous callers are refused before the backend", func(t *testing.T) {
		status, _ := gatewayRequest(t, env, http.MethodPost, "/v1/summarize", "", map[string]any{
			"text": "anything",
		})
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("failed calls leave no usage trail", func(t *testing.T) {
		status, body := gatewayRequest(t, env, http.MethodGet, "/v1/history", token, nil)
		require.Equal(t, http.StatusOK, status)
		require.Empty(t, body["records"])
	})
}
