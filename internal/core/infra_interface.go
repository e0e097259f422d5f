package core

import (
	"context"

	"github.com/querygenie/querygenie/internal/models"
)

// DbClient defines all persistence operations the services and the pipeline
// need. It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProjectByID(ctx context.Context, id int64) (*models.Project, error)
	UpdateProjectStage(ctx context.Context, id int64, stage models.ProcessingStage) error

	// AssignProjectCollection records collectionID on the project only if no
	// collection id has been recorded yet, and returns the id that ended up
	// stored. First writer wins; a concurrent loser receives the winner's id.
	AssignProjectCollection(ctx context.Context, id int64, collectionID string) (string, error)

	CreateFileData(ctx context.Context, fd *models.FileData) error
	AttachProjectFile(ctx context.Context, projectID, fileDataID int64) error

	CreateVectors(ctx context.Context, records []models.Vector) (int64, error)
	ListVectorsByProject(ctx context.Context, projectID int64) ([]models.Vector, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
}
