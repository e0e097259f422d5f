package vectorindex

import (
	"context"
	"fmt"
	"log"

	"github.com/qdrant/go-client/qdrant"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
)

var distances = map[core.Distance]qdrant.Distance{
	core.DistanceDot:       qdrant.Distance_Dot,
	core.DistanceCosine:    qdrant.Distance_Cosine,
	core.DistanceEuclid:    qdrant.Distance_Euclid,
	core.DistanceManhattan: qdrant.Distance_Manhattan,
}

// QdrantIndex implements core.VectorIndex against a Qdrant deployment.
type QdrantIndex struct {
	client *qdrant.Client
}

func NewQdrantIndex(host string, port int, apiKey string) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant at %s:%d: %w", host, port, err)
	}
	return &QdrantIndex{client: client}, nil
}

func (q *QdrantIndex) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it does not exist yet. Calling
// it again with the same name is a no-op, which makes retries safe.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, name string, dimension int, distance core.Distance) error {
	dist, ok := distances[distance]
	if !ok {
		return fmt.Errorf("%w: unknown distance %q", errs.ErrInvalidArgument, distance)
	}

	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return errs.Upstream("qdrant", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: dist,
		}),
	})
	if err != nil {
		return errs.Upstream("qdrant", err)
	}
	log.Printf("qdrant: created collection %s (dim=%d, distance=%s)", name, dimension, distance)
	return nil
}

// Upsert writes all points in one batched call, waiting for the operation to
// be applied. Points are keyed by id, so re-submitting overwrites.
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, points []core.VectorPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	pts := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"projectId": p.Payload.ProjectID,
				"text":      p.Payload.Text,
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         pts,
	})
	if err != nil {
		return 0, errs.Upstream("qdrant", err)
	}
	return len(points), nil
}

// Search returns up to limit hits ordered by descending similarity score.
func (q *QdrantIndex) Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]core.SearchHit, error) {
	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errs.Upstream("qdrant", err)
	}

	hits := make([]core.SearchHit, 0, len(results))
	for _, sp := range results {
		hit := core.SearchHit{
			ID:    sp.GetId().GetUuid(),
			Score: sp.GetScore(),
		}
		if payload := sp.GetPayload(); payload != nil {
			hit.Payload.ProjectID = payload["projectId"].GetIntegerValue()
			hit.Payload.Text = payload["text"].GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

var _ core.VectorIndex = (*QdrantIndex)(nil)
