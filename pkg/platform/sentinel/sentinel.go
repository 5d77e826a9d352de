package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and external capabilities
// return these (optionally wrapped) so services and the command boundary can
// translate them into user-facing replies.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store or upstream registry
// - ErrConflict: a record with the same key already exists
// - ErrUnavailable: service or resource temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
