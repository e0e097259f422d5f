package core

import "context"

// EmbeddingProvider turns texts into fixed-dimension vectors. Implementations
// must preserve input order (result[i] embeds texts[i]) and must not retry
// internally; retries belong to the pipeline orchestrator.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
