package companion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	payload []byte
	getErr  error
	sets    int
}

func (m *memoryCache) GetCategories(ctx context.Context) ([]byte, error) {
	_ = ctx
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.payload, nil
}

func (m *memoryCache) SetCategories(ctx context.Context, payload []byte) error {
	_ = ctx
	m.payload = payload
	m.sets++
	return nil
}

func TestLoad_NoID(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	seedCategory(t, repo, "c2", "Scientists")
	seedCategory(t, repo, "c1", "Famous People")

	c, cats, err := NewLoader(repo, nil, nil).Load(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, c)
	require.Len(t, cats, 2)
	assert.Equal(t, "Famous People", cats[0].Name)
}

func TestLoad_UnknownIDIsBlankForm(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	seedCategory(t, repo, "c1", "Mystery")

	c, cats, err := NewLoader(repo, nil, nil).Load(context.Background(), "new")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Len(t, cats, 1)
}

func TestLoad_Existing(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	seedCategory(t, repo, "c1", "Mystery")
	created, err := NewService(repo, nil, nil).CreateCompanion(context.Background(), validFields("c1"))
	require.NoError(t, err)

	c, _, err := NewLoader(repo, nil, nil).Load(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, created.ID, c.ID)
	assert.Equal(t, validFields("c1"), c.Fields())
}

func TestLoad_StoreFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = NewLoader(repo, nil, nil).Load(context.Background(), "x")
	require.Error(t, err)
}

func TestCategories_UsesCache(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	seedCategory(t, repo, "c1", "Mystery")
	cache := &memoryCache{}
	loader := NewLoader(repo, cache, nil)

	cats, err := loader.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 1, cache.sets)

	// a cached payload wins over the table
	b, err := json.Marshal([]Category{{ID: "cached", Name: "Cached"}})
	require.NoError(t, err)
	cache.payload = b

	cats, err = loader.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "cached", cats[0].ID)
	assert.Equal(t, 1, cache.sets)
}

func TestCategories_CacheErrorFallsBack(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	seedCategory(t, repo, "c1", "Mystery")
	cache := &memoryCache{getErr: errors.New("redis down")}

	cats, err := NewLoader(repo, cache, nil).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: "c1", Name: "Mystery"}}, cats)

	cache.getErr = nil
	cache.payload = []byte("{not json")
	cats, err = NewLoader(repo, cache, nil).Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}
