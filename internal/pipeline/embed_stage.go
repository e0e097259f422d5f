package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

// EmbedStage is the file-processing job handler. One invocation chunks the
// extracted text, embeds the chunks in a single batched call, provisions or
// reuses the project's collection, upserts the points, mirrors the vector
// records relationally and marks the project Completed.
//
// Every step is idempotent (collection creation checks existence, upsert is
// keyed by point id), so a failed attempt can be retried from the start.
type EmbedStage struct {
	db          core.DbClient
	embedder    core.EmbeddingProvider
	index       core.VectorIndex
	chunker     core.Chunker
	chunkTokens int
}

func NewEmbedStage(db core.DbClient, embedder core.EmbeddingProvider, index core.VectorIndex, chunker core.Chunker, chunkTokens int) *EmbedStage {
	return &EmbedStage{db: db, embedder: embedder, index: index, chunker: chunker, chunkTokens: chunkTokens}
}

func (s *EmbedStage) Handle(ctx context.Context, job *Job) (any, error) {
	in, err := indexingInput(job)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunker.Split(in.Text, s.chunkTokens)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced from text", errs.ErrMissingData)
	}

	vectors, err := s.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d want %d", len(vectors), len(chunks))
	}
	dimension := len(vectors[0])

	collectionID, err := s.resolveCollection(ctx, in.ProjectID, dimension)
	if err != nil {
		return nil, err
	}

	points := make([]core.VectorPoint, len(chunks))
	for i := range chunks {
		points[i] = core.VectorPoint{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: core.VectorPayload{
				ProjectID: in.ProjectID,
				Text:      chunks[i],
			},
		}
	}

	inserted, err := s.index.Upsert(ctx, collectionID, points)
	if err != nil {
		return nil, fmt.Errorf("upsert %d points into %s: %w", len(points), collectionID, err)
	}
	log.Printf("pipeline: job %s upserted %d points into collection %s", job.ID, inserted, collectionID)

	records := make([]models.Vector, len(points))
	for i, p := range points {
		records[i] = models.Vector{VectorID: p.ID, ProjectID: in.ProjectID}
	}
	count, err := s.db.CreateVectors(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persist vector records: %w", err)
	}

	if err := s.db.UpdateProjectStage(ctx, in.ProjectID, models.StageCompleted); err != nil {
		return nil, fmt.Errorf("mark project %d completed: %w", in.ProjectID, err)
	}

	return IndexingOutput{VectorCount: count}, nil
}

// resolveCollection returns the project's collection id, assigning a fresh
// one when none is recorded. The id is persisted before the index call so a
// mid-provisioning failure leaves retries with the same id, and assignment
// is first-writer-wins so concurrent jobs for one project converge on one
// collection. EnsureCollection is idempotent, so it runs on every invocation
// rather than only on first assignment; that also heals a retry where the id
// was stored but index creation failed.
func (s *EmbedStage) resolveCollection(ctx context.Context, projectID int64, dimension int) (string, error) {
	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("load project %d: %w", projectID, err)
	}
	if project == nil {
		return "", fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}

	collectionID := project.CollectionID
	if collectionID == "" {
		candidate := uuid.NewString()
		assigned, err := s.db.AssignProjectCollection(ctx, projectID, candidate)
		if err != nil {
			return "", fmt.Errorf("assign collection for project %d: %w", projectID, err)
		}
		if assigned != candidate {
			log.Printf("pipeline: project %d already has collection %s, reusing", projectID, assigned)
		} else {
			log.Printf("pipeline: assigned collection %s to project %d", assigned, projectID)
		}
		collectionID = assigned
	}

	if err := s.index.EnsureCollection(ctx, collectionID, dimension, core.DistanceDot); err != nil {
		return "", fmt.Errorf("ensure collection %s: %w", collectionID, err)
	}
	return collectionID, nil
}
