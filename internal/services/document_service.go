package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
	"github.com/querygenie/querygenie/internal/pipeline"
)

// ExtractionQueue is the slice of the pipeline the upload path needs.
type ExtractionQueue interface {
	EnqueueExtraction(ctx context.Context, name string, in pipeline.ExtractionInput) (string, error)
}

var dataURIPrefix = regexp.MustCompile(`^data:.*;base64,`)

// DocumentService accepts an uploaded document, archives the original in
// object storage, records it relationally and hands the base64 payload to
// the ingestion pipeline.
type DocumentService struct {
	db      core.DbClient
	storage core.ObjectClient
	queue   ExtractionQueue
	bucket  string
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, queue ExtractionQueue, bucket string) *DocumentService {
	return &DocumentService{db: db, storage: storage, queue: queue, bucket: bucket}
}

// UploadResult reports the stored file record and the id of the parsing job
// the upload spawned.
type UploadResult struct {
	FileData *models.FileData `json:"fileData"`
	JobID    string           `json:"jobId"`
}

// Upload validates the target project, stores the decoded file in S3,
// records a FileData row attached to the project and enqueues extraction.
// fileB64 may carry a data-URI prefix; it is passed to the pipeline as
// received and stripped only for the object-storage copy.
func (s *DocumentService) Upload(ctx context.Context, projectID int64, name, format, fileB64 string) (*UploadResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || fileB64 == "" {
		return nil, fmt.Errorf("%w: name and file required", errs.ErrInvalidArgument)
	}
	if format == "" {
		format = "pdf"
	}

	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}

	raw, err := base64.StdEncoding.DecodeString(dataURIPrefix.ReplaceAllString(fileB64, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: file is not valid base64", errs.ErrInvalidArgument)
	}

	key := s.objectKey(projectID, name, format)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, raw, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("archive upload: %w", err)
	}

	fd := &models.FileData{
		URL:         url,
		StorageType: "AWS",
		Name:        name,
		Format:      format,
	}
	if err := s.db.CreateFileData(ctx, fd); err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}
	if err := s.db.AttachProjectFile(ctx, projectID, fd.ID); err != nil {
		return nil, fmt.Errorf("attach file to project %d: %w", projectID, err)
	}

	jobID, err := s.queue.EnqueueExtraction(ctx, name, pipeline.ExtractionInput{
		File:      fileB64,
		ProjectID: projectID,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue extraction: %w", err)
	}

	return &UploadResult{FileData: fd, JobID: jobID}, nil
}

// objectKey keeps one S3 prefix per project, one object per upload.
func (s *DocumentService) objectKey(projectID int64, name, format string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return path.Join("projects", fmt.Sprintf("%d", projectID), uuid.NewString(), name+"."+format)
}
