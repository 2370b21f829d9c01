package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docquery-ai/server/config"
	"github.com/docquery-ai/server/internal/db"
	"github.com/docquery-ai/server/internal/documents"
	"github.com/docquery-ai/server/internal/embeddings"
	"github.com/docquery-ai/server/internal/index"
	"github.com/docquery-ai/server/internal/ollama"
	"github.com/docquery-ai/server/internal/rag"
	"github.com/docquery-ai/server/internal/server"
	"github.com/docquery-ai/server/internal/session"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to config file")
		addrFlag   = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	// Optional .env for DATABASE_URL and friends
	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	files := rag.NewFileStore(cfg.Paths.TempDir)
	if err := files.Init(); err != nil {
		return err
	}

	// Embedder and vector client are built exactly once here and injected;
	// nothing else constructs a second instance.
	var embedder embeddings.Embedder
	if cfg.Ollama.BaseURL != "" {
		embedder = embeddings.NewOllamaEmbedder(embeddings.OllamaConfig{
			BaseURL:    cfg.Ollama.BaseURL,
			Model:      cfg.Ollama.EmbedModel,
			Dimensions: cfg.Ollama.Dimensions,
		})
		log.Printf("embedding with %s via %s", cfg.Ollama.EmbedModel, cfg.Ollama.BaseURL)
	} else {
		embedder = embeddings.NewHashEmbedder(cfg.Ollama.Dimensions)
		log.Printf("no embedding endpoint configured, using local hash embedder")
	}

	var (
		registry session.Registry
		idx      index.Index
	)
	if cfg.Database.ConnectionString != "" {
		pool, err := db.New(cfg.Database.ConnectionString)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = pool.EnsureSchema(ctx, embedder.Dimensions())
		cancel()
		if err != nil {
			return err
		}

		registry, idx = pool, pool
		log.Printf("sessions and vectors stored in postgres")
	} else {
		registry = session.NewMemoryRegistry()
		idx = index.NewMemory()
		log.Printf("no database configured, using in-memory stores")
	}

	var composer rag.Composer = rag.NewExtractiveComposer()
	if cfg.Ollama.BaseURL != "" && cfg.Ollama.GenerateModel != "" {
		composer = rag.NewGenerativeComposer(ollama.NewClient(cfg.Ollama.BaseURL), cfg.Ollama.GenerateModel)
		log.Printf("composing answers with %s", cfg.Ollama.GenerateModel)
	}

	svc := rag.NewService(
		documents.NewFitzExtractor(),
		documents.NewChunker(cfg.Processing.MaxChars, cfg.Processing.OverlapChars),
		embedder,
		idx,
		registry,
		files,
		composer,
		cfg.Processing.TopK,
	)

	sweeper := session.NewSweeper(registry, svc, cfg.TTL(), cfg.SweepInterval())
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, documents.NewFitzRenderer(), registry, cfg.Limits.MaxUploadBytes).Handler(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("listening on %s", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}
	return nil
}
