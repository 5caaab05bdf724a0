package reviewcycle

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("review cycle not found")
	ErrInvalid  = errors.New("invalid review cycle")
)

// ValidationError lists every problem found in a cycle definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }
