package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
	"github.com/querygenie/querygenie/internal/pipeline"
)

type memDB struct {
	mu       sync.Mutex
	nextID   int64
	projects map[int64]*models.Project
	files    map[int64]*models.FileData
	vectors  []models.Vector
}

func newMemDB() *memDB {
	return &memDB{
		projects: make(map[int64]*models.Project),
		files:    make(map[int64]*models.FileData),
	}
}

func (m *memDB) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.projects[p.ID] = p
	return nil
}

func (m *memDB) GetProjectByID(_ context.Context, id int64) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memDB) UpdateProjectStage(_ context.Context, id int64, stage models.ProcessingStage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	p.ProcessingStage = stage
	return nil
}

func (m *memDB) AssignProjectCollection(_ context.Context, id int64, collectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return "", fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	if p.CollectionID == "" {
		p.CollectionID = collectionID
	}
	return p.CollectionID, nil
}

func (m *memDB) CreateFileData(_ context.Context, fd *models.FileData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	fd.ID = m.nextID
	m.files[fd.ID] = fd
	return nil
}

func (m *memDB) AttachProjectFile(_ context.Context, projectID, fileDataID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}
	p.FileDataID = &fileDataID
	return nil
}

func (m *memDB) CreateVectors(_ context.Context, records []models.Vector) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = append(m.vectors, records...)
	return int64(len(records)), nil
}

func (m *memDB) ListVectorsByProject(_ context.Context, projectID int64) ([]models.Vector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vector
	for _, v := range m.vectors {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memDB) Close() error { return nil }

type memStorage struct {
	mu      sync.Mutex
	err     error
	uploads []string
	bytes   [][]byte
}

func (m *memStorage) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, key)
	m.bytes = append(m.bytes, data)
	return "https://" + bucket + ".s3.amazonaws.com/" + key, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []pipeline.ExtractionInput
}

func (q *recordingQueue) EnqueueExtraction(_ context.Context, name string, in pipeline.ExtractionInput) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, in)
	return fmt.Sprintf("job-%d", len(q.jobs)), nil
}

type stubEmbedder struct {
	err    error
	vector []float32
}

func (s stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

type stubIndex struct {
	hits       []core.SearchHit
	err        error
	lastQuery  []float32
	lastLimit  int
	collection string
}

func (s *stubIndex) EnsureCollection(context.Context, string, int, core.Distance) error { return nil }

func (s *stubIndex) Upsert(context.Context, string, []core.VectorPoint) (int, error) { return 0, nil }

func (s *stubIndex) Search(_ context.Context, collection string, query []float32, limit int) ([]core.SearchHit, error) {
	s.collection = collection
	s.lastQuery = query
	s.lastLimit = limit
	return s.hits, s.err
}

type stubLLM struct {
	answer     string
	err        error
	lastPrompt string
}

func (s *stubLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	s.lastPrompt = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}
