package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoDateFound = errors.New("no date found")
	ErrEmptyName   = errors.New("empty output name")
	ErrCollision   = errors.New("output path already claimed")
)
