package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/querygenie/querygenie/internal/config"
	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/chunker"
	db "github.com/querygenie/querygenie/internal/core/database"
	"github.com/querygenie/querygenie/internal/core/extract"
	"github.com/querygenie/querygenie/internal/core/llm"
	objectclient "github.com/querygenie/querygenie/internal/core/object-client"
	vectorindex "github.com/querygenie/querygenie/internal/core/vector-index"
	"github.com/querygenie/querygenie/internal/pipeline"
	"github.com/querygenie/querygenie/internal/services"
)

type App struct {
	DBClient core.DbClient
	Pipeline *pipeline.Orchestrator
	Server   *Server

	embedder *llm.GeminiEmbedder
	llm      *llm.GeminiLLM
	index    *vectorindex.QdrantIndex
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	index, err := vectorindex.NewQdrantIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the vector index, %w", err)
	}
	log.Println("Vector index client initialized and ready.")

	parseStage := pipeline.NewParseStage(extract.NewDocconvExtractor())
	embedStage := pipeline.NewEmbedStage(dbClient, geminiEmbedder, index, chunker.TokenChunker{}, cfg.ChunkTokenSize)

	orchestrator := pipeline.NewOrchestrator(dbClient, parseStage.Handle, embedStage.Handle, pipeline.Config{
		Attempts:     cfg.JobAttempts,
		BackoffDelay: cfg.JobBackoff,
		RetainFailed: cfg.RetainFailed,
	})

	projectSvc := services.NewProjectService(dbClient)
	documentSvc := services.NewDocumentService(dbClient, objClient, orchestrator, cfg.BucketName)
	querySvc := services.NewQueryService(dbClient, geminiEmbedder, index, llmProvider)

	server := NewServer(cfg, projectSvc, documentSvc, querySvc)

	return &App{
		DBClient: dbClient,
		Pipeline: orchestrator,
		Server:   server,
		embedder: geminiEmbedder,
		llm:      llmProvider,
		index:    index,
	}, nil
}

// Start launches the pipeline workers and the HTTP server.
func (a *App) Start(ctx context.Context) {
	a.Pipeline.Start(ctx)
	go a.Server.Start()
}

func (a *App) Close() {
	if a.Pipeline != nil {
		_ = a.Pipeline.Stop()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
