package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"onboard/internal/signing/models"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists signing attempts. Metadata queries never select the
// content column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const metadataColumns = `
	id, application_id, document_type, document_label, document_hash, content_type,
	state, nonce, document_with_signature, signature_object, status, error_code,
	created_at, signed_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, doc *models.SignedDocument) error {
	query := `
		INSERT INTO signed_documents (
			id, application_id, document_type, document_label, document_hash, document_content,
			content_type, state, nonce, document_with_signature, signature_object, status,
			error_code, created_at, signed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		doc.ID, doc.ApplicationID, doc.DocumentType, doc.DocumentLabel, doc.DocumentHash, doc.Content,
		doc.ContentType, doc.State, doc.Nonce, pq.Array(nonNil(doc.DocumentWithSignature)), pq.Array(nonNil(doc.SignatureObject)), string(doc.Status),
		doc.ErrorCode, doc.CreatedAt, doc.SignedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert signed document: %w", err)
	}
	return nil
}

// Update writes a terminal transition; it only matches PENDING rows.
func (s *PostgresStore) Update(ctx context.Context, doc *models.SignedDocument) error {
	exec := txcontext.Executor(ctx, s.db)
	query := `
		UPDATE signed_documents
		SET document_with_signature = $2, signature_object = $3, status = $4,
			error_code = $5, signed_at = $6, updated_at = $7
		WHERE id = $1 AND status = 'PENDING'
	`
	res, err := exec.ExecContext(ctx, query,
		doc.ID, pq.Array(nonNil(doc.DocumentWithSignature)), pq.Array(nonNil(doc.SignatureObject)), string(doc.Status),
		doc.ErrorCode, doc.SignedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update signed document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update signed document: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM signed_documents WHERE id = $1)`, doc.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check signed document: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.SignedDocument, error) {
	return s.findOne(ctx, `SELECT `+metadataColumns+` FROM signed_documents WHERE id = $1`, id)
}

func (s *PostgresStore) FindByState(ctx context.Context, state string) (*models.SignedDocument, error) {
	return s.findOne(ctx, `SELECT `+metadataColumns+` FROM signed_documents WHERE state = $1`, state)
}

func (s *PostgresStore) Content(ctx context.Context, state string) ([]byte, string, error) {
	var (
		content     []byte
		contentType string
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT document_content, content_type FROM signed_documents WHERE state = $1`, state,
	).Scan(&content, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", sentinel.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load document content: %w", err)
	}
	return content, contentType, nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID string) ([]*models.SignedDocument, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+metadataColumns+` FROM signed_documents WHERE application_id = $1 ORDER BY created_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("list signed documents: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SignedDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list signed documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg string) (*models.SignedDocument, error) {
	doc, err := scanDocument(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return doc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.SignedDocument, error) {
	var (
		doc      models.SignedDocument
		status   string
		signedAt sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.ApplicationID, &doc.DocumentType, &doc.DocumentLabel, &doc.DocumentHash, &doc.ContentType,
		&doc.State, &doc.Nonce, pq.Array(&doc.DocumentWithSignature), pq.Array(&doc.SignatureObject), &status, &doc.ErrorCode,
		&doc.CreatedAt, &signedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan signed document: %w", err)
	}
	doc.Status = models.Status(status)
	if signedAt.Valid {
		at := signedAt.Time
		doc.SignedAt = &at
	}
	return &doc, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
