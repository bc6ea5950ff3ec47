package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"onboard/internal/credentials"
	"onboard/internal/verification/models"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists verification rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	id, application_id, credential_type, namespace, verifier_transaction_id,
	verifier_request_uri, credential_data, status, failure_reason,
	created_at, verified_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, c *models.VerifiedCredential) error {
	data, err := marshalData(c.CredentialData)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verified_credentials (
			id, application_id, credential_type, namespace, verifier_transaction_id,
			verifier_request_uri, credential_data, status, failure_reason,
			created_at, verified_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12)
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		c.ID, c.ApplicationID, string(c.CredentialType), c.Namespace, c.VerifierTransactionID,
		c.VerifierRequestURI, data, string(c.Status), c.FailureReason,
		c.CreatedAt, c.VerifiedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verified credential: %w", err)
	}
	return nil
}

// Update writes a terminal transition; it only matches PENDING rows.
func (s *PostgresStore) Update(ctx context.Context, c *models.VerifiedCredential) error {
	data, err := marshalData(c.CredentialData)
	if err != nil {
		return err
	}
	exec := txcontext.Executor(ctx, s.db)
	query := `
		UPDATE verified_credentials
		SET status = $2, credential_data = $3::jsonb, failure_reason = $4,
			verified_at = $5, updated_at = $6
		WHERE id = $1 AND status = 'PENDING'
	`
	res, err := exec.ExecContext(ctx, query,
		c.ID, string(c.Status), data, c.FailureReason, c.VerifiedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update verified credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verified credential: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM verified_credentials WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check verified credential: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) ListByTransaction(ctx context.Context, transactionID string) ([]*models.VerifiedCredential, error) {
	query := `SELECT ` + selectColumns + ` FROM verified_credentials
		WHERE verifier_transaction_id = $1 ORDER BY created_at, id`
	return s.query(ctx, query, transactionID)
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID string) ([]*models.VerifiedCredential, error) {
	query := `SELECT ` + selectColumns + ` FROM verified_credentials
		WHERE application_id = $1 ORDER BY created_at, id`
	return s.query(ctx, query, applicationID)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.VerifiedCredential, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verified credentials: %w", err)
	}
	defer rows.Close()

	out := make([]*models.VerifiedCredential, 0)
	for rows.Next() {
		var (
			c              models.VerifiedCredential
			credentialType string
			status         string
			data           []byte
			verifiedAt     sql.NullTime
		)
		if err := rows.Scan(
			&c.ID, &c.ApplicationID, &credentialType, &c.Namespace, &c.VerifierTransactionID,
			&c.VerifierRequestURI, &data, &status, &c.FailureReason,
			&c.CreatedAt, &verifiedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verified credential: %w", err)
		}
		c.CredentialType = credentials.Type(credentialType)
		c.Status = models.Status(status)
		if verifiedAt.Valid {
			at := verifiedAt.Time
			c.VerifiedAt = &at
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &c.CredentialData); err != nil {
				return nil, fmt.Errorf("unmarshal credential data: %w", err)
			}
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verified credentials: %w", err)
	}
	return out, nil
}

func marshalData(data map[string]any) (any, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal credential data: %w", err)
	}
	return string(b), nil
}
