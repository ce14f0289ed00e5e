package service

import (
	"context"
	"time"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/store"
	"github.com/docbrief/docbrief/pkg/idx"
	"github.com/docbrief/docbrief/pkg/slogx"
)

// recordTimeout bounds a usage insert so a slow disk can't hold a request
// goroutine hostage.
const recordTimeout = 5 * time.Second

// UsageService logs inference calls and answers the history endpoints.
type UsageService struct {
	Store store.Store
}

// Record logs one inference call. Failures are logged and swallowed: the
// usage trail is best effort and must never fail the request that produced
// it.
func (s *UsageService) Record(ctx context.Context, username string, op domain.Operation, res *Result) {
	log := slogx.FromContext(ctx)

	// Detach from the request context: the response has already been
	// written by the time we get here, and its context may be done.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	rec := domain.UsageRecord{
		ID:              idx.New(),
		Username:        username,
		Operation:       op,
		Model:           res.Model,
		PromptChars:     res.PromptChars,
		CompletionChars: res.CompletionChars,
		DurationMS:      res.Duration.Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.Store.Usage().Insert(recCtx, rec); err != nil {
		log.Error("failed to record usage", "username", username, "operation", op, "err", err)
	}
}

// History returns the caller's own usage records, newest first.
func (s *UsageService) History(ctx context.Context, username string, limit int) ([]domain.UsageRecord, error) {
	return s.Store.Usage().ListByUsername(ctx, username, limit)
}

// All returns usage records across every user, newest first. Callers gate
// this behind the admin role.
func (s *UsageService) All(ctx context.Context, limit int) ([]domain.UsageRecord, error) {
	return s.Store.Usage().ListAll(ctx, limit)
}
