package feedback

import "errors"

var (
	ErrNotFound         = errors.New("feedback request not found")
	ErrSelfRequest      = errors.New("cannot request feedback from yourself")
	ErrAlreadyResponded = errors.New("feedback request already answered")
	ErrForbidden        = errors.New("only the requestee can respond")
	ErrUnknownUser      = errors.New("user not found in organisation")
)
