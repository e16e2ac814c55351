package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	categoriesKey     = "companion:categories"
	categoryCountsKey = "companion:category_counts"
)

type Store struct {
	rdb           *redis.Client
	categoriesTTL time.Duration
}

func New(addr, password string, db int, categoriesTTL time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewWithClient(rdb, categoriesTTL)
}

func NewWithClient(rdb *redis.Client, categoriesTTL time.Duration) *Store {
	if categoriesTTL <= 0 {
		categoriesTTL = 10 * time.Minute
	}
	return &Store{rdb: rdb, categoriesTTL: categoriesTTL}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// GetCategories returns the cached category payload, or nil on a miss.
func (s *Store) GetCategories(ctx context.Context) ([]byte, error) {
	b, err := s.rdb.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) SetCategories(ctx context.Context, payload []byte) error {
	return s.rdb.Set(ctx, categoriesKey, payload, s.categoriesTTL).Err()
}

func (s *Store) InvalidateCategories(ctx context.Context) error {
	return s.rdb.Del(ctx, categoriesKey).Err()
}

// SetCategoryCount stores the number of companions in a category.
func (s *Store) SetCategoryCount(ctx context.Context, categoryID string, n int64) error {
	return s.rdb.HSet(ctx, categoryCountsKey, categoryID, n).Err()
}

// CategoryCounts returns every stored per-category companion count.
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, categoryCountsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
