package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

type ProjectService struct {
	db core.DbClient
}

func NewProjectService(db core.DbClient) *ProjectService {
	return &ProjectService{db: db}
}

// Create registers a new project in the InProgress stage. The stage stays
// InProgress until an ingestion run completes or fails terminally.
func (s *ProjectService) Create(ctx context.Context, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name required", errs.ErrInvalidArgument)
	}

	project := &models.Project{
		Name:            name,
		Description:     description,
		ProcessingStage: models.StageInProgress,
	}
	if err := s.db.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.db.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	return project, nil
}

// ListVectors returns the relational mirror of the project's indexed points.
func (s *ProjectService) ListVectors(ctx context.Context, projectID int64) ([]models.Vector, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.db.ListVectorsByProject(ctx, projectID)
}
