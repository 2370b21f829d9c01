package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/ollama"
)

// Citation is a ranked query result annotated with its source location for
// client-side highlighting. IDs are 1-based ranks; Text is the full chunk
// text, never truncated.
type Citation struct {
	ID   int            `json:"id"`
	Text string         `json:"text"`
	Page int            `json:"page"`
	BBox documents.BBox `json:"bbox"`
}

// Composer renders the final answer from the query and its ranked
// citations. The retrieval contract is identical for every implementation;
// only the rendering differs.
type Composer interface {
	Compose(ctx context.Context, query string, citations []Citation) (string, error)
}

// ExtractiveComposer echoes the ranked snippets, referencing each citation
// by its bracketed id. This is the default strategy.
type ExtractiveComposer struct{}

// NewExtractiveComposer creates the default composer
func NewExtractiveComposer() *ExtractiveComposer {
	return &ExtractiveComposer{}
}

// Compose formats a summary of the retrieved chunks
func (c *ExtractiveComposer) Compose(_ context.Context, _ string, citations []Citation) (string, error) {
	parts := make([]string, 0, len(citations))
	for _, cit := range citations {
		snippet := cit.Text
		if runes := []rune(snippet); len(runes) > 200 {
			snippet = string(runes[:200]) + "..."
		}
		parts = append(parts, fmt.Sprintf("[%d] %s", cit.ID, snippet))
	}

	answer := "Based on the document, I found the following relevant information:\n\n"
	answer += strings.Join(parts, "\n\n")
	return answer, nil
}

// GenerativeComposer produces an answer with a language model, grounding it
// in the retrieved excerpts and asking for bracketed citation references.
type GenerativeComposer struct {
	client *ollama.Client
	model  string
}

// NewGenerativeComposer creates a composer backed by an Ollama model
func NewGenerativeComposer(client *ollama.Client, model string) *GenerativeComposer {
	return &GenerativeComposer{client: client, model: model}
}

// Compose prompts the model with the excerpts and the question
func (c *GenerativeComposer) Compose(ctx context.Context, query string, citations []Citation) (string, error) {
	answer, err := c.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: c.buildPrompt(query, citations),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (c *GenerativeComposer) buildPrompt(query string, citations []Citation) string {
	var parts []string

	parts = append(parts, "You are answering questions about an uploaded document.")
	parts = append(parts, "Use only the excerpts below and reference them by their bracketed numbers.")
	parts = append(parts, "")
	parts = append(parts, "## Document Excerpts:")
	for _, cit := range citations {
		parts = append(parts, fmt.Sprintf("\n[%d] (page %d)", cit.ID, cit.Page))
		parts = append(parts, cit.Text)
	}
	parts = append(parts, "")
	parts = append(parts, "## Question:")
	parts = append(parts, query)
	parts = append(parts, "")
	parts = append(parts, "If the excerpts do not contain the answer, say so.")

	return strings.Join(parts, "\n")
}
