package http

import (
	"net/http"

	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

type ModelsHandler struct {
	LLM service.LLM
}

// ServeHTTP godoc
//
//	@Summary		List available models
//	@Description	Lists the models installed on the inference server.
//	@Tags			Inference
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	ModelsResponse		"Installed models"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		502	{object}	httpx.ErrorResponse	"Inference server unavailable"
//	@Router			/v1/models [get].
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	models, err := h.LLM.ListModels(ctx)
	if err != nil {
		log.Error("model listing failed", "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ModelsResponse{Models: models})
}
