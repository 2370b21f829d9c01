package documents

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewChunker(0, -1)
		assert.Equal(t, DefaultMaxChars, c.maxChars)
		assert.Equal(t, DefaultOverlapChars, c.overlapChars)
	})

	t.Run("overlap clamped below max", func(t *testing.T) {
		c := NewChunker(100, 150)
		assert.Less(t, c.overlapChars, c.maxChars)
	})
}

func TestChunkIdentity(t *testing.T) {
	c := NewChunker(500, 50)
	blocks := []TextBlock{
		{Text: "short block", Page: 1, BBox: BBox{X0: 1, Y0: 2, X1: 3, Y1: 4}},
		{Text: strings.Repeat("x", 500), Page: 2, BBox: BBox{X0: 5, Y0: 6, X1: 7, Y1: 8}},
	}

	out := c.Chunk(blocks)

	require.Len(t, out, 2)
	assert.Equal(t, blocks[0], out[0])
	assert.Equal(t, blocks[1], out[1])
}

func TestChunkSplitsOversizedBlocks(t *testing.T) {
	c := NewChunker(500, 50)
	text := strings.Repeat("a", 450) + strings.Repeat("b", 450) + strings.Repeat("c", 300)
	block := TextBlock{Text: text, Page: 3, BBox: BBox{X0: 10, Y0: 20, X1: 30, Y1: 40}}

	out := c.Chunk([]TextBlock{block})

	// 1200 chars with a 450-char step: starts at 0, 450, 900
	require.Len(t, out, 3)

	for i, chunk := range out {
		assert.LessOrEqual(t, len(chunk.Text), 500, "chunk %d over limit", i)
		assert.Equal(t, block.Page, chunk.Page, "chunk %d page", i)
		assert.Equal(t, block.BBox, chunk.BBox, "chunk %d bbox", i)
	}

	// consecutive chunks overlap by exactly overlapChars
	assert.Equal(t, out[0].Text[450:], out[1].Text[:50])
	assert.Equal(t, out[1].Text[450:], out[2].Text[:50])

	// final chunk ends exactly at the text's end
	assert.True(t, strings.HasSuffix(out[2].Text, "c"))
	assert.Equal(t, text[900:], out[2].Text)
}

func TestChunkMultibyteCharacters(t *testing.T) {
	c := NewChunker(500, 50)

	// 400 characters spanning 1200 bytes stay one chunk
	block := TextBlock{Text: strings.Repeat("世", 400), Page: 1}
	out := c.Chunk([]TextBlock{block})
	require.Len(t, out, 1)
	assert.Equal(t, block.Text, out[0].Text)

	// 1200 characters split on character counts, never inside a rune
	out = c.Chunk([]TextBlock{{Text: strings.Repeat("界", 1200), Page: 1}})
	require.Len(t, out, 3)
	for i, chunk := range out {
		assert.True(t, utf8.ValidString(chunk.Text), "chunk %d", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), 500, "chunk %d", i)
	}

	// overlap is measured in characters too
	first := []rune(out[0].Text)
	second := []rune(out[1].Text)
	assert.Equal(t, string(first[450:]), string(second[:50]))
}

func TestChunkReassembles(t *testing.T) {
	c := NewChunker(100, 10)
	text := strings.Repeat("0123456789", 35)
	out := c.Chunk([]TextBlock{{Text: text, Page: 1}})

	// stitching chunks back together (dropping each overlap) restores the text
	rebuilt := out[0].Text
	for _, chunk := range out[1:] {
		rebuilt += chunk.Text[10:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestChunkDeterministic(t *testing.T) {
	c := NewChunker(120, 30)
	blocks := []TextBlock{
		{Text: strings.Repeat("alpha ", 100), Page: 1},
		{Text: "tiny", Page: 2},
		{Text: strings.Repeat("beta ", 80), Page: 2},
	}

	first := c.Chunk(blocks)
	second := c.Chunk(blocks)

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first, second)
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(500, 50)
	assert.Empty(t, c.Chunk(nil))
	assert.Empty(t, c.Chunk([]TextBlock{}))
}
