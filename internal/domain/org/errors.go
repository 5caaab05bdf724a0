package org

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("name already exists")
	ErrInvalidName     = errors.New("invalid name")
	ErrParentNotFound  = errors.New("parent not found")
	ErrParentInactive  = errors.New("parent is inactive")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidTimeZone = errors.New("invalid time zone")
)
