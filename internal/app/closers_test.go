package app

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosers_ReverseOrder(t *testing.T) {
	var c Closers
	var order []string
	c.Add("db", func() error { order = append(order, "db"); return nil })
	c.Add("redis", func() error { order = append(order, "redis"); return nil })
	c.Add("nil", nil)

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"redis", "db"}, order)

	// second call is a no-op
	require.NoError(t, c.Close())
	assert.Len(t, order, 2)
}

func TestClosers_AggregatesErrors(t *testing.T) {
	var c Closers
	errA := errors.New("a down")
	errB := errors.New("b down")
	ran := false
	c.Add("a", func() error { return errA })
	c.Add("ok", func() error { ran = true; return nil })
	c.Add("b", func() error { return errB })

	err := c.Close()
	require.Error(t, err)
	assert.True(t, ran)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "close b")
}
