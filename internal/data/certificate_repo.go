package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eventdesk/eventdesk-api/internal/data/pgxutil"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	apperrors "github.com/eventdesk/eventdesk-api/internal/errors"
)

// verificationCodeLen is the number of hex characters kept from a random uuid.
const verificationCodeLen = 16

// CertificateRepo issues attendance certificates.
type CertificateRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCertificateRepo creates a new CertificateRepo.
func NewCertificateRepo(db *sql.DB, cfg RepoConfig) *CertificateRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &CertificateRepo{DB: db, timeProvider: tp}
}

// Issue creates the certificate for (eventID, userID) or returns the one
// already issued. Re-running a certificate job is therefore harmless.
func (r *CertificateRepo) Issue(ctx context.Context, eventID, userID string) (*model.Certificate, error) {
	if !validID(eventID) {
		return nil, ErrEventNotFound
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ValidationField("user_id", "user_id is required")
	}

	var out model.Certificate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		// The no-op update makes RETURNING yield the existing row on conflict.
		rows, err := conn.Query(ctx, `
			INSERT INTO certificates (event_id, user_id, verification_code, issued_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, user_id) DO UPDATE SET event_id = EXCLUDED.event_id
			RETURNING id, event_id, user_id, verification_code, issued_at
		`, eventID, userID, newVerificationCode(), r.timeProvider.Now())
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Certificate])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("issue certificate: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

func newVerificationCode() string {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(code[:verificationCodeLen])
}
