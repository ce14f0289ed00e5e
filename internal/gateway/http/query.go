package http

import (
	"net/http"
	"strings"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// QueryRequest is the JSON body for POST /v1/query.
type QueryRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
	Model   string `json:"model,omitempty"`
}

type QueryHandler struct {
	Summarizer *service.SummarizeService
	Usage      *service.UsageService
}

// ServeHTTP godoc
//
//	@Summary		Run a free-form query
//	@Description	Sends a prompt to the inference server, optionally grounded in caller-provided context material.
//	@Tags			Inference
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		QueryRequest		true	"Prompt and optional context"
//	@Success		200		{object}	GenerationResponse	"Model response"
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing or malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		502		{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/query [post].
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}

	res, err := h.Summarizer.Query(ctx, service.QueryInput{
		Prompt:  req.Prompt,
		Context: req.Context,
		Model:   req.Model,
	})
	if err != nil {
		log.Error("query failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generationResponse(res))
	h.Usage.Record(ctx, username, domain.OpQuery, res)
}
