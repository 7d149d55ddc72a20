package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by the engine. All of them are recoverable and carry
// enough detail for the caller to render a specific message; match them with
// errors.Is.
var (
	// Schema errors.
	ErrDuplicateName      = errors.New("schema name already exists")
	ErrDuplicateAttribute = errors.New("attribute name already exists on schema")
	ErrDuplicateRole      = errors.New("role name already exists on schema")
	ErrNotARelationSchema = errors.New("schema is not relation-kind")
	ErrSchemaInUse        = errors.New("schema is in use")

	// Typing errors.
	ErrTypeMismatch          = errors.New("value type does not match declared data type")
	ErrEmptySchemaSet        = errors.New("entity requires at least one schema")
	ErrDisallowedParticipant = errors.New("participant type not allowed for role")
	ErrNotARelation          = errors.New("entity is not typed by the role's relation schema")

	// Relational integrity errors.
	ErrCardinalityViolation = errors.New("role cardinality violated")
	ErrDanglingLinks        = errors.New("entity still owns relation links")
	ErrUnknownEntity        = errors.New("unknown entity")
	ErrUnknownSchema        = errors.New("unknown schema")
	ErrUnknownAttribute     = errors.New("unknown attribute")
	ErrUnknownRole          = errors.New("unknown role")

	// ErrInvalidInput marks malformed caller input (empty names, bad enum
	// values) before it reaches storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage marks faults from the storage layer beneath the engine.
	// The engine does not interpret them further.
	ErrStorage = errors.New("storage failure")
)

// storageError wraps an underlying storage fault with the operation that hit
// it. errors.Is(err, ErrStorage) matches; Unwrap exposes the driver error.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storageError) Is(target error) bool { return target == ErrStorage }

func (e *storageError) Unwrap() error { return e.err }

// StorageError wraps err as a storage-layer fault. Returns nil when err is
// nil; errors already carrying an engine kind pass through unchanged.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsEngineError(err) {
		return err
	}
	return &storageError{op: op, err: err}
}

// IsEngineError reports whether err carries one of the engine's typed kinds.
func IsEngineError(err error) bool {
	for _, kind := range []error{
		ErrDuplicateName, ErrDuplicateAttribute, ErrDuplicateRole,
		ErrNotARelationSchema, ErrSchemaInUse,
		ErrTypeMismatch, ErrEmptySchemaSet, ErrDisallowedParticipant, ErrNotARelation,
		ErrCardinalityViolation, ErrDanglingLinks,
		ErrUnknownEntity, ErrUnknownSchema, ErrUnknownAttribute, ErrUnknownRole,
		ErrInvalidInput, ErrStorage,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
