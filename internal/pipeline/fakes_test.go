package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	got   [][]byte
}

func (f *fakeExtractor) Extract(_ context.Context, data []byte) (*core.Extracted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = append(f.got, data)
	if f.err != nil {
		return nil, f.err
	}
	return &core.Extracted{
		Info:     map[string]string{"Title": "doc"},
		Metadata: map[string]string{"Producer": "test"},
		Text:     f.text,
	}, nil
}

// wordChunker splits on whitespace into groups of maxTokens words, standing
// in for the token-based splitter without needing an encoding.
type wordChunker struct {
	empty bool
}

func (c wordChunker) Split(text string, maxTokens int) ([]string, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", errs.ErrInvalidArgument, maxTokens)
	}
	if c.empty {
		return nil, nil
	}
	words := strings.Fields(text)
	var chunks []string
	for len(words) > 0 {
		n := maxTokens
		if n > len(words) {
			n = len(words)
		}
		chunks = append(chunks, strings.Join(words[:n], " "))
		words = words[n:]
	}
	return chunks, nil
}

func (c wordChunker) TokenCount(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

var _ core.Chunker = wordChunker{}

// fakeEmbedder returns deterministic vectors and can be told to fail its
// first N calls, which exercises the retry path.
type fakeEmbedder struct {
	mu        sync.Mutex
	dimension int
	failFirst int
	calls     int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return nil, errs.Upstream("embed", fmt.Errorf("transient failure %d", f.calls))
	}
	dim := f.dimension
	if dim == 0 {
		dim = 4
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, dim)
		vec[0] = float32(i)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIndex struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string]map[string]core.VectorPoint
	upsertErr   error
	ensureCalls int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		collections: make(map[string]int),
		points:      make(map[string]map[string]core.VectorPoint),
	}
}

func (f *fakeIndex) EnsureCollection(_ context.Context, name string, dimension int, _ core.Distance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	if existing, ok := f.collections[name]; ok {
		if existing != dimension {
			return fmt.Errorf("collection %s exists with dimension %d", name, existing)
		}
		return nil
	}
	f.collections[name] = dimension
	f.points[name] = make(map[string]core.VectorPoint)
	return nil
}

func (f *fakeIndex) Upsert(_ context.Context, collection string, points []core.VectorPoint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	stored, ok := f.points[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s does not exist", collection)
	}
	for _, p := range points {
		stored[p.ID] = p
	}
	return len(points), nil
}

func (f *fakeIndex) Search(_ context.Context, collection string, _ []float32, limit int) ([]core.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hits []core.SearchHit
	for _, p := range f.points[collection] {
		if len(hits) == limit {
			break
		}
		hits = append(hits, core.SearchHit{ID: p.ID, Score: 1, Payload: p.Payload})
	}
	return hits, nil
}

func (f *fakeIndex) pointCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points[collection])
}

// fakeDB is an in-memory core.DbClient with the same first-writer-wins
// collection assignment the SQL implementation has.
type fakeDB struct {
	mu          sync.Mutex
	nextID      int64
	projects    map[int64]*models.Project
	vectors     []models.Vector
	assignCalls int
}

func newFakeDB() *fakeDB {
	return &fakeDB{projects: make(map[int64]*models.Project)}
}

func (f *fakeDB) addProject(p *models.Project) *models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	if p.ProcessingStage == "" {
		p.ProcessingStage = models.StageInProgress
	}
	f.projects[p.ID] = p
	return p
}

func (f *fakeDB) CreateProject(_ context.Context, p *models.Project) error {
	f.addProject(p)
	return nil
}

func (f *fakeDB) GetProjectByID(_ context.Context, id int64) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDB) UpdateProjectStage(_ context.Context, id int64, stage models.ProcessingStage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	p.ProcessingStage = stage
	return nil
}

func (f *fakeDB) AssignProjectCollection(_ context.Context, id int64, collectionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignCalls++
	p, ok := f.projects[id]
	if !ok {
		return "", fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	if p.CollectionID == "" {
		p.CollectionID = collectionID
	}
	return p.CollectionID, nil
}

func (f *fakeDB) CreateFileData(_ context.Context, fd *models.FileData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	fd.ID = f.nextID
	return nil
}

func (f *fakeDB) AttachProjectFile(_ context.Context, projectID, fileDataID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}
	p.FileDataID = &fileDataID
	return nil
}

func (f *fakeDB) CreateVectors(_ context.Context, records []models.Vector) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append(f.vectors, records...)
	return int64(len(records)), nil
}

func (f *fakeDB) ListVectorsByProject(_ context.Context, projectID int64) ([]models.Vector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Vector
	for _, v := range f.vectors {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) stage(id int64) models.ProcessingStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projects[id].ProcessingStage
}

func (f *fakeDB) collectionID(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projects[id].CollectionID
}

func (f *fakeDB) vectorCount(projectID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.vectors {
		if v.ProjectID == projectID {
			n++
		}
	}
	return n
}
