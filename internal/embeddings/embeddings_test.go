package embeddings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.3, -0.5, 0.8}
		assert.InDelta(t, 1.0, Similarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, Similarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, Similarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	})

	t.Run("zero norm degenerates to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Similarity([]float32{0, 0}, []float32{1, 1}))
		assert.Equal(t, 0.0, Similarity(nil, []float32{1, 1}))
	})

	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{10, 20, 30}
		assert.InDelta(t, 1.0, Similarity(a, b), 1e-6)
	})
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := t.Context()

	first, err := e.Embed(ctx, "the quick brown fox")
	assert.NoError(t, err)
	second, err := e.Embed(ctx, "the quick brown fox")
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, DefaultHashDimensions)
}

func TestHashEmbedderNormalized(t *testing.T) {
	e := NewHashEmbedder(64)
	vec, err := e.Embed(t.Context(), "hello world")
	assert.NoError(t, err)
	assert.Len(t, vec, 64)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedderSharedTokens(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := t.Context()

	query, _ := e.Embed(ctx, "What skills are listed?")
	related, _ := e.Embed(ctx, "Skills: Python, Go and SQL")
	unrelated, _ := e.Embed(ctx, "The weather tomorrow will be rainy")

	assert.Greater(t, Similarity(query, related), Similarity(query, unrelated))
}

func TestHashEmbedderPunctuationInsensitive(t *testing.T) {
	e := NewHashEmbedder(0)
	ctx := t.Context()

	a, _ := e.Embed(ctx, "skills, experience.")
	b, _ := e.Embed(ctx, "skills experience")

	assert.InDelta(t, 1.0, Similarity(a, b), 1e-6)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(32)
	vec, err := e.Embed(t.Context(), "   ")
	assert.NoError(t, err)
	assert.Len(t, vec, 32)
	assert.Equal(t, 0.0, Similarity(vec, vec))
}

func TestHashEmbedderBatch(t *testing.T) {
	e := NewHashEmbedder(0)
	texts := []string{"first chunk", "second chunk", "third chunk"}

	vectors, err := e.EmbedBatch(t.Context(), texts)
	assert.NoError(t, err)
	assert.Len(t, vectors, len(texts))

	single, _ := e.Embed(t.Context(), "second chunk")
	assert.Equal(t, single, vectors[1])
}

func TestHashEmbedderDimensions(t *testing.T) {
	assert.Equal(t, 128, NewHashEmbedder(128).Dimensions())
	assert.Equal(t, DefaultHashDimensions, NewHashEmbedder(-5).Dimensions())
}
