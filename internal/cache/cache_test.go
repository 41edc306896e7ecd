package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("fabric:", time.Minute)

	_, err := c.Get(ctx, "mapping:db1.t1")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "mapping:db1.t1", `{"table_name":"db1.t1"}`, 0))
	v, err := c.Get(ctx, "mapping:db1.t1")
	require.NoError(t, err)
	require.Equal(t, `{"table_name":"db1.t1"}`, v)

	require.NoError(t, c.Delete(ctx, "mapping:db1.t1", "missing"))
	_, err = c.Get(ctx, "mapping:db1.t1")
	require.ErrorIs(t, err, ErrNotFound)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, "memory", st.Driver)
	require.EqualValues(t, 1, st.Hits)
	require.EqualValues(t, 2, st.Misses)
}

func TestMemoryClientExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0)
	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Kind: "none"})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", "v", 0))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	c, err = New(ctx, Config{})
	require.NoError(t, err)
	st, _ := c.Stats(ctx)
	require.Equal(t, "memory", st.Driver)

	_, err = New(ctx, Config{Kind: "memcached"})
	require.Error(t, err)
}
