package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// maxJSONBody bounds JSON request bodies. Documents go through the multipart
// endpoint which has its own limit.
const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst, answering 400 on malformed input.
// Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	return true
}

// requestUser pulls the authenticated user out of the context; the authn
// middleware guarantees it's there on secured routes.
func requestUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := httpx.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusForbidden, "not_authenticated", "missing bearer token")
		return "", false
	}
	return user.Username, true
}

// SummarizeRequest is the JSON body for POST /v1/summarize.
type SummarizeRequest struct {
	Text      string `json:"text"`
	Model     string `json:"model,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Style     string `json:"style,omitempty"`
}

type SummarizeHandler struct {
	Summarizer *service.SummarizeService
	Usage      *service.UsageService
}

// ServeHTTP godoc
//
//	@Summary		Summarize text
//	@Description	Summarizes the submitted text. Style is one of concise, detailed, bullet_points, executive or academic; max_length is the approximate summary length in words.
//	@Tags			Inference
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SummarizeRequest	true	"Text to summarize"
//	@Success		200		{object}	GenerationResponse	"Summary"
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing or malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		502		{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/summarize [post].
func (h *SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	res, err := h.Summarizer.Summarize(ctx, service.SummarizeInput{
		Text:      req.Text,
		Model:     req.Model,
		MaxLength: req.MaxLength,
		Style:     req.Style,
	})
	if err != nil {
		log.Error("summarize failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generationResponse(res))
	h.Usage.Record(ctx, username, domain.OpSummarize, res)
}
