package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryViewCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryViewCache(0)

	_, ok := c.Get(ctx, "/dashboard/invoices", "page=1")
	assert.False(t, ok)

	c.Set(ctx, "/dashboard/invoices", "page=1", []byte("one"))
	value, ok := c.Get(ctx, "/dashboard/invoices", "page=1")
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), value)
}

func TestInMemoryViewCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryViewCache(0)

	c.Set(ctx, "/dashboard/invoices", "page=1", []byte("one"))
	c.Set(ctx, "/dashboard/invoices", "page=2", []byte("two"))
	c.Set(ctx, "/dashboard/customers", "all", []byte("customers"))

	c.Invalidate(ctx, "/dashboard/invoices")

	assert.Zero(t, c.Len("/dashboard/invoices"))
	_, ok := c.Get(ctx, "/dashboard/invoices", "page=2")
	assert.False(t, ok)

	_, ok = c.Get(ctx, "/dashboard/customers", "all")
	assert.True(t, ok, "other views are untouched")
}

func TestInMemoryViewCache_DropAll(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryViewCache(0)

	c.Set(ctx, "/dashboard/invoices", "page=1", []byte("one"))
	c.Set(ctx, "/dashboard/customers", "all", []byte("customers"))

	c.DropAll()

	assert.Zero(t, c.Len("/dashboard/invoices"))
	assert.Zero(t, c.Len("/dashboard/customers"))

	c.Set(ctx, "/dashboard/invoices", "page=1", []byte("again"))
	assert.Equal(t, 1, c.Len("/dashboard/invoices"))
}

func TestInMemoryViewCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemoryViewCache(time.Minute)
	c.nowFunc = func() time.Time { return now }

	c.Set(ctx, "v", "k", []byte("x"))

	now = now.Add(59 * time.Second)
	_, ok := c.Get(ctx, "v", "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "v", "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len("v"))
}
