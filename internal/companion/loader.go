package companion

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// CategoryCache stores the serialized category list. Get reports a miss
// with (nil, nil).
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]byte, error)
	SetCategories(ctx context.Context, payload []byte) error
}

// Loader supplies a form with its initial record and category options.
type Loader struct {
	repo  *Repo
	cache CategoryCache
	log   *zap.Logger
}

func NewLoader(repo *Repo, cache CategoryCache, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{repo: repo, cache: cache, log: log}
}

// Load returns the companion with the given id, or nil when id is empty or
// unknown, together with all categories. Only store failures are errors.
func (l *Loader) Load(ctx context.Context, id string) (*Companion, []Category, error) {
	var c *Companion
	if id = strings.TrimSpace(id); id != "" {
		found, err := l.repo.FindCompanionByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		c = found
	}

	cats, err := l.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, cats, nil
}

func (l *Loader) Categories(ctx context.Context) ([]Category, error) {
	if l.cache != nil {
		if cats, ok := l.cachedCategories(ctx); ok {
			return cats, nil
		}
	}

	cats, err := l.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if b, err := json.Marshal(cats); err == nil {
			if err := l.cache.SetCategories(ctx, b); err != nil {
				l.log.Warn("category cache write failed", zap.Error(err))
			}
		}
	}
	return cats, nil
}

func (l *Loader) cachedCategories(ctx context.Context) ([]Category, bool) {
	b, err := l.cache.GetCategories(ctx)
	if err != nil {
		l.log.Warn("category cache read failed", zap.Error(err))
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	var cats []Category
	if err := json.Unmarshal(b, &cats); err != nil {
		l.log.Warn("category cache payload invalid", zap.Error(err))
		return nil, false
	}
	return cats, true
}
