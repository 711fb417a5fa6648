package lh

import (
	"errors"
	"fmt"

	"lh-go/internal/codec"
)

var (
	// ErrMissingArgument indicates a required value was not supplied.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidArgument indicates a value is present but structurally invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPath indicates a path with illegal characters or no content.
	ErrInvalidPath = fmt.Errorf("%w: invalid path", ErrInvalidArgument)

	// ErrInvalidFileName indicates a file name (or label) that cannot be used on disk.
	ErrInvalidFileName = fmt.Errorf("%w: invalid file name", ErrInvalidArgument)

	// ErrOutOfRange indicates a timestamp outside the supported calendar window.
	ErrOutOfRange = errors.New("timestamp out of range")

	// ErrMalformedName indicates an archive file name that cannot be decoded.
	ErrMalformedName = codec.ErrMalformedName

	// ErrOriginalNotFound indicates that no archive layout reconstructs an existing source file.
	ErrOriginalNotFound = errors.New("original file not found")

	// ErrRevisionNotFound indicates that no revision matches a lookup.
	ErrRevisionNotFound = errors.New("revision not found")
)
