package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ConstraintKind string

const (
	UniqueViolation     ConstraintKind = "unique_violation"
	ForeignKeyViolation ConstraintKind = "foreign_key_violation"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrConstraint = errors.New("constraint violation")
)

// ConstraintError is the only form in which stores report integrity violations.
// Callers branch on Kind and Constraint, never on driver error text.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s on %s", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraint }

// Classify translates driver errors into this package's typed errors. Errors it does
// not recognise are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return &ConstraintError{Kind: UniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
	case pgForeignKeyViolation:
		return &ConstraintError{Kind: ForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// AsConstraint reports whether err carries a ConstraintError of the given kind.
func AsConstraint(err error, kind ConstraintKind) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) && ce.Kind == kind {
		return ce, true
	}
	return nil, false
}
