package project

import "errors"

// Sentinel errors for fallible store operations. The API layer maps
// these to status codes; callers branch with errors.Is.
var (
	ErrInvalidName   = errors.New("invalid file name")
	ErrDuplicateName = errors.New("file name already in use")
	ErrNotFound      = errors.New("file not found")
	ErrLastFile      = errors.New("cannot delete the last remaining file")
	ErrFileTooLarge  = errors.New("file content exceeds size limit")
	ErrInvalidState  = errors.New("project state is invalid")
)
