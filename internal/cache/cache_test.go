package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "projects:list:a", []byte("x"), 0)

	got, ok := c.Get(ctx, "projects:list:a")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "projects:list:a")
	assert.False(t, ok, "entry should expire after ttl")
}

func TestCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	c.Set(ctx, "projects:list:1", []byte("1"), 0)
	c.Set(ctx, "projects:list:2", []byte("2"), 0)
	c.Set(ctx, "dashboard:stats", []byte("3"), 0)

	c.DeletePrefix(ctx, "projects:")

	_, ok := c.Get(ctx, "projects:list:1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "projects:list:2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "dashboard:stats")
	assert.True(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	type stats struct {
		Total int `json:"total"`
	}

	SetJSON(ctx, c, "k", stats{Total: 7}, 0)

	got, ok := GetJSON[stats](ctx, c, "k")
	require.True(t, ok)
	assert.Equal(t, 7, got.Total)

	c.Set(ctx, "bad", []byte("{not json"), 0)
	_, ok = GetJSON[stats](ctx, c, "bad")
	assert.False(t, ok)
}

func TestInvalidateListings(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	c.Set(ctx, "projects:list:v1:limit=20", []byte("1"), 0)
	c.Set(ctx, "dashboard:stats:v1", []byte("2"), 0)
	c.Set(ctx, "session:abc", []byte("3"), 0)

	InvalidateListings(ctx, c)

	_, ok := c.Get(ctx, "projects:list:v1:limit=20")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "dashboard:stats:v1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "session:abc")
	assert.True(t, ok, "unrelated keys survive")

	InvalidateListings(ctx, nil)
}
