package http

import (
	"net/http"
	"strings"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// AnalyzeRequest is the JSON body for POST /v1/analyze.
type AnalyzeRequest struct {
	Text         string `json:"text"`
	AnalysisType string `json:"analysis_type,omitempty"`
	Model        string `json:"model,omitempty"`
}

type AnalyzeHandler struct {
	Summarizer *service.SummarizeService
	Usage      *service.UsageService
}

// ServeHTTP godoc
//
//	@Summary		Analyze a document
//	@Description	Runs a structured analysis over the submitted text. analysis_type is one of general, sentiment, entities or topics (default general).
//	@Tags			Inference
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalyzeRequest		true	"Text to analyze"
//	@Success		200		{object}	GenerationResponse	"Analysis result"
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing or malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		502		{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/analyze [post].
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	res, err := h.Summarizer.Analyze(ctx, service.AnalyzeInput{
		Text:         req.Text,
		AnalysisType: req.AnalysisType,
		Model:        req.Model,
	})
	if err != nil {
		log.Error("analyze failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generationResponse(res))
	h.Usage.Record(ctx, username, domain.OpAnalyze, res)
}
