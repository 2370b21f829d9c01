package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultHashDimensions is the vector size of the fallback embedder.
const DefaultHashDimensions = 256

// HashEmbedder is a deterministic, model-free embedder: words and character
// trigrams are feature-hashed into a fixed number of signed buckets and the
// result is L2-normalized. It stands in for a real embedding model when no
// endpoint is configured, and gives tests stable vectors where shared tokens
// produce higher cosine similarity.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a hash embedder with the given dimensionality
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed maps text to a normalized feature-hash vector
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:\"'()[]")
		if token == "" {
			continue
		}
		e.addFeature(vec, token)
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			e.addFeature(vec, "#"+string(runes[i:i+3]))
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}

// EmbedBatch embeds each text in order
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *HashEmbedder) addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dimensions))
	if sum&(1<<63) != 0 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}
