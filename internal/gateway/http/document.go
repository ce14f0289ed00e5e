package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// maxUploadBytes bounds document uploads.
const maxUploadBytes = 10 << 20

type DocumentHandler struct {
	Summarizer *service.SummarizeService
	Extractor  service.Extractor
	Usage      *service.UsageService
}

// ServeHTTP godoc
//
//	@Summary		Summarize an uploaded document
//	@Description	Accepts a multipart upload ("file" field, .txt or .md), extracts its text and summarizes it. Optional form fields: model, max_length, style.
//	@Tags			Inference
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file				true	"Document to summarize (.txt or .md)"
//	@Param			style		formData	string				false	"Summary style"
//	@Param			max_length	formData	int					false	"Approximate summary length in words"
//	@Param			model		formData	string				false	"Model override"
//	@Success		200			{object}	GenerationResponse	"Summary"
//	@Failure		400			{object}	httpx.ErrorResponse	"Missing file or malformed form"
//	@Failure		401			{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		413			{object}	httpx.ErrorResponse	"Document too large"
//	@Failure		415			{object}	httpx.ErrorResponse	"Unsupported document type"
//	@Failure		502			{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/summarize/document [post].
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "invalid_request", "document too large")
		return
	}

	text, err := h.Extractor.Extract(header.Filename, data)
	if err != nil {
		log.Warn("document rejected", "filename", header.Filename, "err", err)
		writeServiceError(w, err)
		return
	}

	maxLength, _ := strconv.Atoi(r.FormValue("max_length"))
	res, err := h.Summarizer.Summarize(ctx, service.SummarizeInput{
		Text:      text,
		Model:     r.FormValue("model"),
		MaxLength: maxLength,
		Style:     r.FormValue("style"),
	})
	if err != nil {
		log.Error("document summarize failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generationResponse(res))
	h.Usage.Record(ctx, username, domain.OpDocument, res)
}
