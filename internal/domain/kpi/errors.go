package kpi

import (
	"errors"
	"fmt"
	"strings"

	"perfhub/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("kpi not found")
	ErrInvalid       = errors.New("invalid kpi")
	ErrDuplicateData = errors.New("duplicate data")
)

// ConflictError reports a unique constraint the write ran into. It matches
// ErrDuplicateData with errors.Is.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate data: %s", e.Constraint)
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Is(target error) bool { return target == ErrDuplicateData }

// DuplicateMapping reports whether the conflict came from a repeated
// department/team/designation mapping rather than a version number race.
func (e *ConflictError) DuplicateMapping() bool {
	return e.Constraint == constraintUniqueMapping
}

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

const (
	constraintUniqueMapping = "kpi_version_mappings_unique_mapping"
	constraintUniqueVersion = "kpi_versions_unique_version"
)

// classify turns unique violations into ConflictError and missing rows into ErrNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := db.AsConstraint(err, db.UniqueViolation); ok {
		return &ConflictError{Constraint: ce.Constraint, Err: err}
	}
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
