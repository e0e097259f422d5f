package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

func TestAnswerRetrievesAndGenerates(t *testing.T) {
	db := newMemDB()
	project := &models.Project{Name: "alpha", CollectionID: "col-1"}
	_ = db.CreateProject(context.Background(), project)

	index := &stubIndex{hits: []core.SearchHit{
		{ID: "a", Score: 0.9, Payload: core.VectorPayload{ProjectID: project.ID, Text: "revenue grew 12%"}},
		{ID: "b", Score: 0.7, Payload: core.VectorPayload{ProjectID: project.ID, Text: "costs were flat"}},
	}}
	llm := &stubLLM{answer: "Revenue grew 12% while costs stayed flat."}
	svc := NewQueryService(db, stubEmbedder{vector: []float32{1, 2, 3}}, index, llm)

	answer, hits, err := svc.Answer(context.Background(), project.ID, "how did revenue develop?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != llm.answer {
		t.Errorf("answer = %q", answer)
	}
	if len(hits) != 2 {
		t.Errorf("%d hits returned, want 2", len(hits))
	}
	if index.collection != "col-1" {
		t.Errorf("searched collection %q, want col-1", index.collection)
	}
	if index.lastLimit != searchLimit {
		t.Errorf("search limit = %d, want %d", index.lastLimit, searchLimit)
	}
	if !strings.Contains(llm.lastPrompt, "revenue grew 12%") || !strings.Contains(llm.lastPrompt, "how did revenue develop?") {
		t.Errorf("prompt missing context or question:\n%s", llm.lastPrompt)
	}
}

func TestAnswerErrors(t *testing.T) {
	db := newMemDB()
	indexed := &models.Project{Name: "indexed", CollectionID: "col-1"}
	_ = db.CreateProject(context.Background(), indexed)
	unindexed := &models.Project{Name: "fresh"}
	_ = db.CreateProject(context.Background(), unindexed)

	tests := []struct {
		name      string
		projectID int64
		question  string
		embedder  stubEmbedder
		want      error
	}{
		{"empty question", indexed.ID, "  ", stubEmbedder{vector: []float32{1}}, errs.ErrInvalidArgument},
		{"unknown project", 999, "q", stubEmbedder{vector: []float32{1}}, errs.ErrNotFound},
		{"not indexed yet", unindexed.ID, "q", stubEmbedder{vector: []float32{1}}, errs.ErrMissingData},
		{"embedder down", indexed.ID, "q", stubEmbedder{err: errs.Upstream("gemini-embed", errors.New("quota"))}, errs.ErrUpstream},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewQueryService(db, tc.embedder, &stubIndex{}, &stubLLM{answer: "x"})
			_, _, err := svc.Answer(context.Background(), tc.projectID, tc.question)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestProjectServiceCreateAndList(t *testing.T) {
	db := newMemDB()
	svc := NewProjectService(db)

	project, err := svc.Create(context.Background(), "  alpha  ", "first project")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if project.ID == 0 || project.Name != "alpha" {
		t.Errorf("project = %+v", project)
	}
	if project.ProcessingStage != models.StageInProgress {
		t.Errorf("stage = %s, want InProgress", project.ProcessingStage)
	}

	if _, err := svc.Create(context.Background(), "   ", ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("blank name err = %v", err)
	}
	if _, err := svc.Get(context.Background(), 999); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown project err = %v", err)
	}

	_, _ = db.CreateVectors(context.Background(), []models.Vector{
		{VectorID: "v1", ProjectID: project.ID},
		{VectorID: "v2", ProjectID: project.ID},
		{VectorID: "v3", ProjectID: project.ID + 1},
	})
	vectors, err := svc.ListVectors(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("ListVectors: %v", err)
	}
	if len(vectors) != 2 {
		t.Errorf("%d vectors, want 2", len(vectors))
	}
	if _, err := svc.ListVectors(context.Background(), 999); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown project vectors err = %v", err)
	}
}
