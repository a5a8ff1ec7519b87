package toxicity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_PutGet(t *testing.T) {
	c := newResultCache(3)

	res := Result{IsToxic: true, Score: 0.9, Category: CategoryThreat}
	c.Put("some text", res)

	got, ok := c.Get("some text")
	require.True(t, ok)
	assert.Equal(t, res, got)

	_, ok = c.Get("other text")
	assert.False(t, ok)
}

func TestResultCache_InsertionOrderEviction(t *testing.T) {
	c := newResultCache(2)

	c.Put("first", Result{Score: 0.1})
	c.Put("second", Result{Score: 0.2})

	// Reading "first" must not protect it: eviction is insertion-order,
	// not LRU.
	_, ok := c.Get("first")
	require.True(t, ok)

	c.Put("third", Result{Score: 0.3})

	_, ok = c.Get("first")
	assert.False(t, ok, "oldest insertion must be evicted")
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestResultCache_UpdateDoesNotGrow(t *testing.T) {
	c := newResultCache(2)

	c.Put("a", Result{Score: 0.1})
	c.Put("a", Result{Score: 0.5})
	c.Put("b", Result{Score: 0.2})
	c.Put("c", Result{Score: 0.3})

	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 0.2, got.Score)
}
