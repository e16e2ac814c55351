package handlers

import (
	"context"

	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/companionform"
	"github.com/suPer8Hu/companion-studio/internal/config"
	"github.com/suPer8Hu/companion-studio/internal/store/redisstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CategoryCounts reports how many companions each category holds.
type CategoryCounts interface {
	CategoryCounts(ctx context.Context) (map[string]int64, error)
}

type Handler struct {
	DB         *gorm.DB
	Cfg        config.Config
	Loader     *companion.Loader
	Companions *companion.Service
	Counts     CategoryCounts
	Log        *zap.Logger
}

// NewHandler wires the handlers. rds and notifier may be nil.
func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, notifier companion.Notifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	repo := companion.NewRepo(db)

	h := &Handler{
		DB:         db,
		Cfg:        cfg,
		Companions: companion.NewService(repo, notifier, log),
		Log:        log,
	}
	if rds != nil {
		h.Loader = companion.NewLoader(repo, rds, log)
		h.Counts = rds
	} else {
		h.Loader = companion.NewLoader(repo, nil, log)
	}
	return h
}

func (h *Handler) newForm() *companionform.Controller {
	return companionform.New(h.Companions,
		companionform.WithSubmitTimeout(h.Cfg.SubmitTimeout),
		companionform.WithLogger(h.Log),
	)
}
