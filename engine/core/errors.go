package core

import (
	"errors"
)

// Archive construction errors. Any of these aborts Open.
var (
	ErrInvalidMagic        = errors.New("archive header magic number is incorrect")
	ErrUnsupportedVersion  = errors.New("archive version is not supported")
	ErrDuplicateChunk      = errors.New("multiple chunks with the same type are not allowed")
	ErrUnknownChunk        = errors.New("unknown chunk type")
	ErrMalformedChunkTable = errors.New("malformed chunk table")
	ErrUnsupportedDevice   = errors.New("unsupported device type")
)

// Per-resource errors. These fail a single unpack call only.
var (
	ErrResourceNotFound       = errors.New("resource is not present in the archive")
	ErrInvalidHeader          = errors.New("invalid resource header")
	ErrOutOfBounds            = errors.New("read is out of archive bounds")
	ErrNoDeviceData           = errors.New("device specific data is not specified")
	ErrShaderMismatch         = errors.New("unexpected shader configuration")
	ErrInvalidShaderIndex     = errors.New("shader index is out of range")
	ErrModificationNotAllowed = errors.New("modification is not allowed")
	ErrTooManySignatures      = errors.New("too many resource signatures")
	ErrDeviceCreation         = errors.New("device failed to create object")
	ErrNilDevice              = errors.New("render device must not be nil")
)

var ErrUnknown = errors.New("unknown")
