package http

import (
	"net/http"
	"strconv"

	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

type HistoryHandler struct {
	Usage *service.UsageService
}

// HandleOwn godoc
//
//	@Summary		Get own usage history
//	@Description	Returns the caller's own inference usage records, newest first. Optional ?limit= query parameter.
//	@Tags			Usage
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int					false	"Maximum records to return (default 50)"
//	@Success		200		{object}	HistoryResponse		"Usage records"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Router			/v1/history [get].
func (h *HistoryHandler) HandleOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username, ok := requestUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.Usage.History(ctx, username, limit)
	if err != nil {
		log.Error("history listing failed", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, HistoryResponse{Records: usageEntries(records)})
}

// HandleAll godoc
//
//	@Summary		Get usage across all users
//	@Description	Returns inference usage records for every user, newest first. Requires the admin role. Optional ?limit= query parameter.
//	@Tags			Usage
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int					false	"Maximum records to return (default 50)"
//	@Success		200		{object}	HistoryResponse		"Usage records"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired access token"
//	@Failure		403		{object}	httpx.ErrorResponse	"Caller lacks the admin role"
//	@Router			/v1/usage [get].
func (h *HistoryHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.Usage.All(ctx, limit)
	if err != nil {
		log.Error("usage listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, HistoryResponse{Records: usageEntries(records)})
}
