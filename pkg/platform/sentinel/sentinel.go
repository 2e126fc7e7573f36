package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Query executors, stores and caches
// return these (optionally wrapped) so services can translate them into domain
// errors without knowing which backend produced them.
//
//   - ErrNotFound: no row, key or procedure matched
//   - ErrConflict: a uniqueness or foreign-key constraint rejected the write
//   - ErrUnavailable: backend could not be reached
//   - ErrInvalidState: the operation does not apply to the builder/record as given
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
