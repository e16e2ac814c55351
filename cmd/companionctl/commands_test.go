package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"github.com/suPer8Hu/companion-studio/internal/db"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestSeedNames(t *testing.T) {
	assert.Equal(t, []string{"Poets"}, seedNames([]string{" Poets ", " "}, true))
	assert.Len(t, seedNames(nil, false), len(db.DefaultCategories))
}

func TestMigrateAndSeed(t *testing.T) {
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "ctl.db")

	assert.Contains(t, run(t, "migrate", "--dsn", dsn), "migrated")

	out := run(t, "seed", "--dsn", dsn, "--no-defaults", "--invalidate-cache=false",
		"--category", "Poets", "--category", "Chefs")
	assert.Contains(t, out, "created 2 of 2 categories")

	out = run(t, "seed", "--dsn", dsn, "--no-defaults", "--invalidate-cache=false", "--category", "Poets")
	assert.Contains(t, out, "created 0 of 1 categories")

	gdb, err := db.Connect(dsn)
	require.NoError(t, err)
	defer db.Close(gdb)

	var names []string
	require.NoError(t, gdb.Model(&companion.Category{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Chefs", "Poets"}, names)
}

func TestSeed_NothingToDo(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"seed", "--no-defaults", "--dsn", "sqlite:unused.db"})
	require.EqualError(t, cmd.Execute(), "nothing to seed")
}
