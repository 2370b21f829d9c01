package rag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/ollama"
)

func TestExtractiveCompose(t *testing.T) {
	c := NewExtractiveComposer()
	citations := []Citation{
		{ID: 1, Text: "Skills: Python, Go and SQL", Page: 1},
		{ID: 2, Text: "Experience: five years building backend services", Page: 2},
	}

	answer, err := c.Compose(t.Context(), "What skills are listed?", citations)
	require.NoError(t, err)

	assert.Contains(t, answer, "Based on the document")
	assert.Contains(t, answer, "[1] Skills: Python, Go and SQL")
	assert.Contains(t, answer, "[2] Experience: five years building backend services")
}

func TestExtractiveComposeTruncatesSnippets(t *testing.T) {
	c := NewExtractiveComposer()
	long := strings.Repeat("x", 350)

	answer, err := c.Compose(t.Context(), "anything", []Citation{{ID: 1, Text: long}})
	require.NoError(t, err)

	assert.Contains(t, answer, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, answer, strings.Repeat("x", 201))
}

func TestGenerativeCompose(t *testing.T) {
	var gotPrompt, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollama.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt, gotModel = req.Prompt, req.Model

		// two streamed chunks
		fmt.Fprintln(w, `{"response":"The listed skills are Python, Go and SQL ","done":false}`)
		fmt.Fprintln(w, `{"response":"[1].","done":true}`)
	}))
	defer srv.Close()

	c := NewGenerativeComposer(ollama.NewClient(srv.URL), "llama3")
	citations := []Citation{
		{ID: 1, Text: "Skills: Python, Go and SQL", Page: 1, BBox: documents.BBox{X0: 72, Y0: 100, X1: 300, Y1: 112}},
	}

	answer, err := c.Compose(t.Context(), "What skills are listed?", citations)
	require.NoError(t, err)

	assert.Equal(t, "The listed skills are Python, Go and SQL [1].", answer)
	assert.Equal(t, "llama3", gotModel)
	assert.Contains(t, gotPrompt, "What skills are listed?")
	assert.Contains(t, gotPrompt, "[1] (page 1)")
	assert.Contains(t, gotPrompt, "Skills: Python, Go and SQL")
}

func TestGenerativeComposeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGenerativeComposer(ollama.NewClient(srv.URL), "llama3")
	_, err := c.Compose(t.Context(), "anything", nil)
	assert.Error(t, err)
}
