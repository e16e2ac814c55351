package companion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suPer8Hu/companion-studio/internal/common"
	"go.uber.org/zap"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// SavedEvent is published after a companion row has been written.
type SavedEvent struct {
	EventID            string    `json:"event_id"`
	Action             Action    `json:"action"`
	CompanionID        string    `json:"companion_id"`
	CategoryID         string    `json:"category_id"`
	PreviousCategoryID string    `json:"previous_category_id,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Notifier receives SavedEvents. Delivery is best effort.
type Notifier interface {
	PublishCompanionSaved(ctx context.Context, evt SavedEvent) error
}

type Service struct {
	repo     *Repo
	notifier Notifier
	log      *zap.Logger
}

func NewService(repo *Repo, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, notifier: notifier, log: log}
}

func (s *Service) CreateCompanion(ctx context.Context, f Fields) (*Companion, error) {
	if err := s.ensureCategory(ctx, f.CategoryID); err != nil {
		return nil, err
	}

	c := &Companion{ID: uuid.NewString()}
	c.apply(f)
	if err := s.repo.InsertCompanion(ctx, c); err != nil {
		return nil, fmt.Errorf("inserting companion: %w", err)
	}

	s.notify(ctx, ActionCreated, c, "")
	return c, nil
}

func (s *Service) UpdateCompanion(ctx context.Context, id string, f Fields) (*Companion, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}

	prev, err := s.repo.FindCompanionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, ErrNotFound
	}
	if err := s.ensureCategory(ctx, f.CategoryID); err != nil {
		return nil, err
	}

	c := &Companion{ID: id}
	c.apply(f)
	if err := s.repo.SaveCompanion(ctx, c); err != nil {
		return nil, fmt.Errorf("updating companion %s: %w", id, err)
	}

	previousCategory := ""
	if prev.CategoryID != c.CategoryID {
		previousCategory = prev.CategoryID
	}
	s.notify(ctx, ActionUpdated, c, previousCategory)
	return c, nil
}

func (s *Service) ensureCategory(ctx context.Context, categoryID string) error {
	ok, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, action Action, c *Companion, previousCategory string) {
	if s.notifier == nil {
		return
	}

	eventID, err := common.NewULID()
	if err != nil {
		s.log.Warn("companion event id", zap.Error(err))
		return
	}

	evt := SavedEvent{
		EventID:            eventID,
		Action:             action,
		CompanionID:        c.ID,
		CategoryID:         c.CategoryID,
		PreviousCategoryID: previousCategory,
		OccurredAt:         time.Now().UTC(),
	}
	// the row is already committed; a lost event only delays category counts
	if err := s.notifier.PublishCompanionSaved(ctx, evt); err != nil {
		s.log.Warn("publish companion event failed",
			zap.String("companion_id", c.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
