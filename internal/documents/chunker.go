package documents

// DefaultMaxChars is the default upper bound on chunk length.
const DefaultMaxChars = 500

// DefaultOverlapChars is the default overlap carried into the next chunk.
const DefaultOverlapChars = 50

// Chunker splits oversized text blocks into bounded, overlapping sub-chunks.
// Every chunk keeps its parent block's page and bounding box, so citation
// precision stays at block granularity.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// NewChunker creates a chunker. Non-positive maxChars and negative overlap
// fall back to the defaults; overlap is clamped below maxChars.
func NewChunker(maxChars, overlapChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlapChars < 0 {
		overlapChars = DefaultOverlapChars
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 4
	}
	return &Chunker{maxChars: maxChars, overlapChars: overlapChars}
}

// Chunk returns a new block sequence where every block's text length is at
// most maxChars. Lengths count characters, not bytes. Blocks already under
// the limit pass through unchanged. Oversized blocks are sliced on raw
// character positions with a sliding window: each slice starts
// maxChars-overlapChars after the previous slice's start, and the final
// slice ends exactly at the text's end.
func (c *Chunker) Chunk(blocks []TextBlock) []TextBlock {
	out := make([]TextBlock, 0, len(blocks))

	for _, block := range blocks {
		// byte length bounds the character count
		if len(block.Text) <= c.maxChars {
			out = append(out, block)
			continue
		}
		text := []rune(block.Text)
		if len(text) <= c.maxChars {
			out = append(out, block)
			continue
		}

		for start := 0; start < len(text); {
			end := start + c.maxChars
			if end > len(text) {
				end = len(text)
			}
			out = append(out, TextBlock{
				Text: string(text[start:end]),
				Page: block.Page,
				BBox: block.BBox,
			})
			if end == len(text) {
				break
			}
			start = end - c.overlapChars
		}
	}

	return out
}
