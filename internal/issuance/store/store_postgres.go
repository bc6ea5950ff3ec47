package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"onboard/internal/credentials"
	"onboard/internal/issuance/models"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists issued credential offers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const offerColumns = `
	id, application_id, credential_type, pre_authorized_code, credential_offer_url, otp,
	credential_data, claimed, claimed_at, expires_at, created_at
`

func (s *PostgresStore) Create(ctx context.Context, offer *models.IssuedCredential) error {
	data, err := json.Marshal(offer.CredentialData)
	if err != nil {
		return fmt.Errorf("marshal credential data: %w", err)
	}
	query := `
		INSERT INTO issued_credentials (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11)
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		offer.ID, offer.ApplicationID, string(offer.CredentialType), offer.PreAuthorizedCode, offer.CredentialOfferURL, offer.OTP,
		string(data), offer.Claimed, offer.ClaimedAt, offer.ExpiresAt, offer.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert issued credential: %w", err)
	}
	return nil
}

// Update persists a claim; it only matches unclaimed rows.
func (s *PostgresStore) Update(ctx context.Context, offer *models.IssuedCredential) error {
	exec := txcontext.Executor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE issued_credentials
		SET claimed = $2, claimed_at = $3, expires_at = $4
		WHERE id = $1 AND claimed = FALSE
	`, offer.ID, offer.Claimed, offer.ClaimedAt, offer.ExpiresAt)
	if err != nil {
		return fmt.Errorf("update issued credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issued credential: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM issued_credentials WHERE id = $1)`, offer.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check issued credential: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.IssuedCredential, error) {
	return s.findOne(ctx, `SELECT `+offerColumns+` FROM issued_credentials WHERE id = $1`, id)
}

func (s *PostgresStore) FindByPreAuthorizedCode(ctx context.Context, code string) (*models.IssuedCredential, error) {
	return s.findOne(ctx, `SELECT `+offerColumns+` FROM issued_credentials WHERE pre_authorized_code = $1`, code)
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID string) ([]*models.IssuedCredential, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+offerColumns+` FROM issued_credentials WHERE application_id = $1 ORDER BY created_at, id`,
		applicationID)
	if err != nil {
		return nil, fmt.Errorf("list issued credentials: %w", err)
	}
	defer rows.Close()

	out := make([]*models.IssuedCredential, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list issued credentials: %w", err)
	}
	return out, nil
}

// ExpireLive ends every live offer of the given type for the application.
func (s *PostgresStore) ExpireLive(ctx context.Context, applicationID string, credentialType credentials.Type, now time.Time) (int, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE issued_credentials
		SET expires_at = $3
		WHERE application_id = $1 AND credential_type = $2
			AND claimed = FALSE AND expires_at > $3
	`, applicationID, string(credentialType), now)
	if err != nil {
		return 0, fmt.Errorf("expire issued credentials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire issued credentials: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) findOne(ctx context.Context, query, arg string) (*models.IssuedCredential, error) {
	offer, err := scanOffer(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return offer, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(row scanner) (*models.IssuedCredential, error) {
	var (
		offer     models.IssuedCredential
		credType  string
		data      []byte
		claimedAt sql.NullTime
	)
	err := row.Scan(
		&offer.ID, &offer.ApplicationID, &credType, &offer.PreAuthorizedCode, &offer.CredentialOfferURL, &offer.OTP,
		&data, &offer.Claimed, &claimedAt, &offer.ExpiresAt, &offer.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan issued credential: %w", err)
	}
	offer.CredentialType = credentials.Type(credType)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &offer.CredentialData); err != nil {
			return nil, fmt.Errorf("unmarshal credential data: %w", err)
		}
	}
	if claimedAt.Valid {
		at := claimedAt.Time
		offer.ClaimedAt = &at
	}
	return &offer, nil
}
