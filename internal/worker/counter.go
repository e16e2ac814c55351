// Package worker contains the handlers run by cmd/worker for companion
// events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"go.uber.org/zap"
)

var ErrBadEvent = errors.New("malformed companion event")

type CountStore interface {
	SetCategoryCount(ctx context.Context, categoryID string, n int64) error
}

// CategoryCounter recomputes companion counts for the categories an event
// touches. Recounting from the table makes redelivery harmless.
type CategoryCounter struct {
	repo   *companion.Repo
	counts CountStore
	log    *zap.Logger
}

func NewCategoryCounter(repo *companion.Repo, counts CountStore, log *zap.Logger) *CategoryCounter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryCounter{repo: repo, counts: counts, log: log}
}

func (h *CategoryCounter) Handle(ctx context.Context, evt companion.SavedEvent) error {
	if evt.CompanionID == "" || evt.CategoryID == "" {
		return ErrBadEvent
	}

	start := time.Now()
	categories := lo.Uniq(lo.Compact([]string{evt.CategoryID, evt.PreviousCategoryID}))
	for _, id := range categories {
		n, err := h.repo.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if err := h.counts.SetCategoryCount(ctx, id, n); err != nil {
			return fmt.Errorf("storing count for category %s: %w", id, err)
		}
	}

	if cost := time.Since(start); cost > 500*time.Millisecond {
		h.log.Info("category_count_timing",
			zap.String("event_id", evt.EventID),
			zap.Strings("categories", categories),
			zap.Duration("total", cost),
		)
	}
	return nil
}
