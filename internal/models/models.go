package models

import (
	"time"
)

// ProcessingStage is the project's ingestion status.
type ProcessingStage string

const (
	StageInProgress ProcessingStage = "InProgress"
	StageCompleted  ProcessingStage = "Completed"
	StageFailed     ProcessingStage = "Failed"
)

// Terminal reports whether the stage can no longer change.
func (s ProcessingStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Project represents one document workspace. CollectionID is empty until the
// first successful embedding run assigns the project's vector collection.
type Project struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	FileDataID      *int64          `db:"file_data_id" json:"file_data_id,omitempty"`
	CollectionID    string          `db:"collection_id" json:"collection_id,omitempty"`
	ProcessingStage ProcessingStage `db:"processing_stage" json:"processing_stage"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// FileData records an uploaded file that has been placed in object storage.
type FileData struct {
	ID          int64     `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	StorageType string    `db:"storage_type" json:"storage_type"` // "AWS"
	Name        string    `db:"name" json:"name"`
	Format      string    `db:"format" json:"format"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Vector mirrors one point stored in the vector index, kept relationally for
// audit and join queries.
type Vector struct {
	ID        int64     `db:"id" json:"id"`
	VectorID  string    `db:"vector_id" json:"vector_id"`
	ProjectID int64     `db:"project_id" json:"project_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
