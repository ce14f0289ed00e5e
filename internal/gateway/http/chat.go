package http

import (
	"net/http"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/ollama"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// ChatRequest is the JSON body for POST /v1/chat.
type ChatRequest struct {
	Messages    []ollama.Message `json:"messages"`
	Model       string           `json:"model,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

type ChatHandler struct {
	Summarizer *service.SummarizeService
	Usage      *service.UsageService
}

// ServeHTTP godoc
//
//	@Summary		Chat with the model
//	@Description	Runs a multi-turn conversation. Messages carry a role (system, user or assistant) and content.
//	@Tags			Inference
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChatRequest			true	"Conversation so far"
//	@Success		200		{object}	ChatResponse		"Assistant reply"
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing or malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		502		{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/chat [post].
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "messages are required")
		return
	}

	res, err := h.Summarizer.Chat(ctx, service.ChatInput{
		Messages:    req.Messages,
		Model:       req.Model,
		Temperature: req.Temperature,
	})
	if err != nil {
		log.Error("chat failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ChatResponse{
		Message:    ollama.Message{Role: "assistant", Content: res.Output},
		Model:      res.Model,
		DurationMS: res.Duration.Milliseconds(),
	})
	h.Usage.Record(ctx, username, domain.OpChat, res)
}
