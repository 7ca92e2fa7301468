package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "payments_pkey"}

	if !isUniqueViolation(unique) {
		t.Error("23505 not recognized")
	}
	// Обёртки fmt.Errorf не должны прятать код
	if !isUniqueViolation(fmt.Errorf("insert payment: %w", unique)) {
		t.Error("wrapped 23505 not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation mistaken for unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error mistaken for unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil mistaken for unique violation")
	}
}
