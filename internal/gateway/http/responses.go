package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/ollama"
)

// HealthResponse is returned by the health probe endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each critical dependency.
type HealthChecks struct {
	Database  string `json:"database"`
	Inference string `json:"inference"`
	Identity  string `json:"identity"`
}

// UserResponse is the authenticated caller's identity as the gateway sees it.
type UserResponse struct {
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
	Groups   []string `json:"groups"`
}

// GenerationResponse is the shared shape for summarize/query/analyze output.
type GenerationResponse struct {
	Result     string `json:"result"`
	Model      string `json:"model"`
	DurationMS int64  `json:"duration_ms"`
}

// ChatResponse carries the assistant's reply for the chat endpoint.
type ChatResponse struct {
	Message    ollama.Message `json:"message"`
	Model      string         `json:"model"`
	DurationMS int64          `json:"duration_ms"`
}

// ModelsResponse lists the models installed on the inference server.
type ModelsResponse struct {
	Models []ollama.ModelInfo `json:"models"`
}

// UsageEntry is one logged inference call in a history listing.
type UsageEntry struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Operation       string    `json:"operation"`
	Model           string    `json:"model"`
	PromptChars     int       `json:"prompt_chars"`
	CompletionChars int       `json:"completion_chars"`
	DurationMS      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryResponse wraps a usage listing.
type HistoryResponse struct {
	Records []UsageEntry `json:"records"`
}

func generationResponse(res *service.Result) GenerationResponse {
	return GenerationResponse{
		Result:     res.Output,
		Model:      res.Model,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func usageEntries(records []domain.UsageRecord) []UsageEntry {
	out := make([]UsageEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, UsageEntry{
			ID:              rec.ID.String(),
			Username:        rec.Username,
			Operation:       string(rec.Operation),
			Model:           rec.Model,
			PromptChars:     rec.PromptChars,
			CompletionChars: rec.CompletionChars,
			DurationMS:      rec.DurationMS,
			CreatedAt:       rec.CreatedAt,
		})
	}
	return out
}

// writeServiceError maps service-layer failures to wire responses: an
// unreachable inference server is a bad gateway, an unsupported upload is an
// unsupported media type, everything else is a server error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ollama.ErrUnavailable):
		httpx.WriteError(w, http.StatusBadGateway, "inference_unavailable",
			"inference server unavailable")
	case errors.Is(err, service.ErrUnsupportedDocument):
		httpx.WriteError(w, http.StatusUnsupportedMediaType, "unsupported_document",
			"only .txt and .md documents are supported")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error",
			"internal server error")
	}
}
