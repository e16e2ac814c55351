package companion

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("companion not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// FindCompanionByID returns (nil, nil) when no companion has the given id.
func (r *Repo) FindCompanionByID(ctx context.Context, id string) (*Companion, error) {
	var c Companion
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching companion %s: %w", id, err)
	}
	return &c, nil
}

// ListCategories returns every category ordered by name.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

func (r *Repo) CategoryExists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("checking category %s: %w", id, err)
	}
	return cnt > 0, nil
}

func (r *Repo) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&Companion{}).Where("category_id = ?", categoryID).Count(&cnt).Error; err != nil {
		return 0, fmt.Errorf("counting companions in category %s: %w", categoryID, err)
	}
	return cnt, nil
}

func (r *Repo) InsertCompanion(ctx context.Context, c *Companion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// SaveCompanion overwrites the editable columns of an existing companion.
// It returns ErrNotFound when the row does not exist.
// The row is re-read afterwards so c carries the stored timestamps.
func (r *Repo) SaveCompanion(ctx context.Context, c *Companion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Companion
		if err := tx.Select("id").First(&existing, "id = ?", c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&Companion{}).
			Where("id = ?", c.ID).
			Updates(map[string]any{
				"name":         c.Name,
				"description":  c.Description,
				"instructions": c.Instructions,
				"seed":         c.Seed,
				"src":          c.Src,
				"category_id":  c.CategoryID,
			}).Error; err != nil {
			return err
		}
		return tx.First(c, "id = ?", c.ID).Error
	})
}

func (r *Repo) InsertCategory(ctx context.Context, cat *Category) error {
	return r.db.WithContext(ctx).Create(cat).Error
}
