package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/querygenie/querygenie/internal/config"
	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Projects

func (c *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("nil project")
	}
	if p.ProcessingStage == "" {
		p.ProcessingStage = models.StageInProgress
	}
	const q = `
		INSERT INTO projects (name, description, processing_stage, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, created_at, updated_at
	`
	return c.db.QueryRowContext(ctx, q, p.Name, p.Description, p.ProcessingStage).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (c *DatabaseClient) GetProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	const q = `
		SELECT id, name, description, file_data_id, collection_id, processing_stage, created_at, updated_at
		FROM projects WHERE id = $1
	`
	var (
		p            models.Project
		fileDataID   sql.NullInt64
		collectionID sql.NullString
	)
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Description, &fileDataID, &collectionID, &p.ProcessingStage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fileDataID.Valid {
		p.FileDataID = &fileDataID.Int64
	}
	p.CollectionID = collectionID.String
	return &p, nil
}

func (c *DatabaseClient) UpdateProjectStage(ctx context.Context, id int64, stage models.ProcessingStage) error {
	const q = `
		UPDATE projects
		SET processing_stage = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, stage)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	return nil
}

// AssignProjectCollection records collectionID only when the project has no
// collection yet. First writer wins; the id actually stored is returned so a
// concurrent loser reuses the winner's collection instead of creating a
// second one.
func (c *DatabaseClient) AssignProjectCollection(ctx context.Context, id int64, collectionID string) (string, error) {
	const q = `
		UPDATE projects
		SET collection_id = $2, updated_at = now()
		WHERE id = $1 AND collection_id IS NULL
	`
	if _, err := c.db.ExecContext(ctx, q, id, collectionID); err != nil {
		return "", err
	}

	var stored sql.NullString
	err := c.db.QueryRowContext(ctx, `SELECT collection_id FROM projects WHERE id = $1`, id).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: project %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	if !stored.Valid || stored.String == "" {
		return "", fmt.Errorf("collection id not recorded for project %d", id)
	}
	return stored.String, nil
}

// FileData

func (c *DatabaseClient) CreateFileData(ctx context.Context, fd *models.FileData) error {
	if fd == nil {
		return errors.New("nil file data")
	}
	const q = `
		INSERT INTO file_data (url, storage_type, name, format, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`
	return c.db.QueryRowContext(ctx, q, fd.URL, fd.StorageType, fd.Name, fd.Format).
		Scan(&fd.ID, &fd.CreatedAt, &fd.UpdatedAt)
}

func (c *DatabaseClient) AttachProjectFile(ctx context.Context, projectID, fileDataID int64) error {
	const q = `
		UPDATE projects
		SET file_data_id = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, projectID, fileDataID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: project %d", errs.ErrNotFound, projectID)
	}
	return nil
}

// Vectors

// CreateVectors inserts the vector mirror records in a single transaction.
func (c *DatabaseClient) CreateVectors(ctx context.Context, records []models.Vector) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO vectors (vector_id, project_id, created_at)
		VALUES ($1, $2, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx, r.VectorID, r.ProjectID); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func (c *DatabaseClient) ListVectorsByProject(ctx context.Context, projectID int64) ([]models.Vector, error) {
	const q = `
		SELECT id, vector_id, project_id, created_at
		FROM vectors
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vector
	for rows.Next() {
		var v models.Vector
		if err := rows.Scan(&v.ID, &v.VectorID, &v.ProjectID, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var _ core.DbClient = (*DatabaseClient)(nil)
