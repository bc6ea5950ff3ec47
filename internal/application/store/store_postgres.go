package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"onboard/internal/application/models"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore persists applications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	candidate, err := marshalCandidate(app.Candidate)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO applications (id, vacancy_id, status, candidate, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		app.ID, app.VacancyID, string(app.Status), candidate, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT id, vacancy_id, status, candidate, created_at, updated_at
		FROM applications WHERE id = $1
	`
	var (
		app       models.Application
		status    string
		candidate []byte
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&app.ID, &app.VacancyID, &status, &candidate, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	app.Status = models.Status(status)
	if len(candidate) > 0 {
		var info models.CandidateInfo
		if err := json.Unmarshal(candidate, &info); err != nil {
			return nil, fmt.Errorf("unmarshal candidate: %w", err)
		}
		app.Candidate = &info
	}
	return &app, nil
}

// Update writes the application only while its stored status equals expected.
func (s *PostgresStore) Update(ctx context.Context, app *models.Application, expected models.Status) error {
	candidate, err := marshalCandidate(app.Candidate)
	if err != nil {
		return err
	}
	exec := txcontext.Executor(ctx, s.db)
	query := `
		UPDATE applications
		SET status = $2, candidate = COALESCE(candidate, $3::jsonb), updated_at = $4
		WHERE id = $1 AND status = $5
	`
	res, err := exec.ExecContext(ctx, query,
		app.ID, string(app.Status), candidate, app.UpdatedAt, string(expected))
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, app.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check application: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func marshalCandidate(info *models.CandidateInfo) (any, error) {
	if info == nil {
		return nil, nil
	}
	b, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate: %w", err)
	}
	return string(b), nil
}
