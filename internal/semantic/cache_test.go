package semantic

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder(t *testing.T) {
	db, err := OpenCache("", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	inner := &letterEmbedder{}
	c := NewCachedEmbedder(inner, "m1", db)

	v1, err := c.Embed(ctx, "widget")
	require.NoError(t, err)
	v2, err := c.Embed(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.EqualValues(t, 1, inner.calls.Load())

	vecs, err := c.EmbedBatch(ctx, []string{"widget", "gadget", "tool"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, letters("gadget"), vecs[1])
	assert.EqualValues(t, 3, inner.texts.Load(), "only misses reach the provider")

	_, err = c.EmbedBatch(ctx, []string{"tool", "gadget"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())

	other := NewCachedEmbedder(inner, "m2", db)
	_, err = other.Embed(ctx, "widget")
	require.NoError(t, err)
	assert.EqualValues(t, 3, inner.calls.Load(), "model is part of the key")
}
