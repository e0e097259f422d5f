package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
)

const answerSystemPrompt = "You are an intelligent assistant answering based only on the given document content. If unsure, say 'I cannot find this in the document.'"

const searchLimit = 5

// QueryService answers questions against a project's indexed document by
// embedding the question, retrieving the closest chunks from the project's
// collection and asking the LLM to answer from that context alone.
type QueryService struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	index    core.VectorIndex
	llm      core.LLMProvider
}

func NewQueryService(db core.DbClient, embedder core.EmbeddingProvider, index core.VectorIndex, llm core.LLMProvider) *QueryService {
	return &QueryService{db: db, embedder: embedder, index: index, llm: llm}
}

// Answer resolves the project's collection and runs retrieval plus
// generation. It fails with ErrMissingData when the project has no indexed
// content yet.
func (s *QueryService) Answer(ctx context.Context, projectID int64, question string) (string, []core.SearchHit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: question required", errs.ErrInvalidArgument)
	}

	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", nil, err
	}
	if project == nil {
		return "", nil, fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}
	if project.CollectionID == "" {
		return "", nil, fmt.Errorf("%w: project %d has no indexed document yet", errs.ErrMissingData, projectID)
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return "", nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) == 0 {
		return "", nil, fmt.Errorf("embed question: empty result")
	}

	hits, err := s.index.Search(ctx, project.CollectionID, vecs[0], searchLimit)
	if err != nil {
		return "", nil, fmt.Errorf("search collection %s: %w", project.CollectionID, err)
	}

	var sb strings.Builder
	for _, hit := range hits {
		sb.WriteString(hit.Payload.Text)
		sb.WriteString("\n---\n")
	}
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", sb.String(), question)

	answer, err := s.llm.Generate(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	return answer, hits, nil
}
