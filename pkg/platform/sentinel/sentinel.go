package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and queue implementations
// return these (optionally wrapped) so services can translate them into coded
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document does not exist in the store
// - ErrConflict: unique constraint or concurrent write clash
// - ErrInvalidState: document in wrong state for the requested operation
// - ErrUnavailable: store or queue temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domainerrors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
