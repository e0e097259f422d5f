package core

import "context"

// Distance is the similarity metric a collection is created with.
type Distance string

const (
	DistanceDot       Distance = "Dot"
	DistanceCosine    Distance = "Cosine"
	DistanceEuclid    Distance = "Euclid"
	DistanceManhattan Distance = "Manhattan"
)

// VectorPayload is the metadata stored next to each point.
type VectorPayload struct {
	ProjectID int64  `json:"projectId"`
	Text      string `json:"text"`
}

// VectorPoint is one embedded chunk ready for indexing.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload VectorPayload
}

// SearchHit is one similarity-search result, highest score first.
type SearchHit struct {
	ID      string
	Score   float32
	Payload VectorPayload
}

// VectorIndex wraps a remote similarity-search service.
//
// EnsureCollection is idempotent and safe to retry. Upsert is idempotent per
// point id: re-submitting an id overwrites rather than duplicates. Provider
// failures surface as errs.UpstreamError.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, name string, dimension int, distance Distance) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) (inserted int, err error)
	Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]SearchHit, error)
}
