package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "wrapped canceled", err: fmt.Errorf("claim: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "sql no rows", err: sql.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("MapDBError() should preserve the cause")
			}
		})
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
		wantMsg   string
	}{
		{
			name: "duplicate evaluation response",
			pgErr: &pgconn.PgError{
				Code:      pgerrcode.UniqueViolation,
				TableName: "evaluation_responses",
				Detail:    "Key (evaluation_id, user_id)=(a, b) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "evaluation_id,user_id",
			wantMsg:   "This evaluation response already exists.",
		},
		{
			name:      "unique with column metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "verification_code"},
			wantCode:  ErrCodeConflict,
			wantField: "verification_code",
		},
		{
			name: "missing parent event",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (event_id)=(x) is not present in table "events".`,
			},
			wantCode: ErrCodeForeignKey,
			wantMsg:  "Cannot complete operation because the referenced event does not exist.",
		},
		{
			name:      "check violation with column",
			pgErr:     &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "priority"},
			wantCode:  ErrCodeValidation,
			wantField: "priority",
		},
		{
			name:     "not null violation",
			pgErr:    &pgconn.PgError{Code: pgerrcode.NotNullViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "query canceled",
			pgErr:    &pgconn.PgError{Code: pgerrcode.QueryCanceled},
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "unhandled",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(fmt.Errorf("insert: %w", tt.pgErr))
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError")
			}
			if tt.wantMsg != "" && appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	orig := errors.New("boom")
	if err := MapDBError(orig); err != orig {
		t.Errorf("MapDBError should return unknown errors unchanged, got %v", err)
	}
}
