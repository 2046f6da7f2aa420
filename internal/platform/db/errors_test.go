package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "appointments_slot_key"}
	wrapped := fmt.Errorf("insert appointment: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Error("expected unique violation for any constraint")
	}
	if !IsUniqueViolation(wrapped, "appointments_slot_key") {
		t.Error("expected unique violation for named constraint")
	}
	if IsUniqueViolation(wrapped, "doctors_email_key") {
		t.Error("expected no match for another constraint")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Error("plain error must not match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("foreign key violation must not match")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23503"})) {
		t.Error("expected foreign key violation")
	}
	if IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation must not match")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(errors.New("other")) {
		t.Error("unexpected match")
	}
}
