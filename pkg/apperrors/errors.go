package apperrors

import "errors"

var (
	ErrNilModel         = errors.New("logical model is nil")
	ErrNilSnapshot      = errors.New("profiling snapshot is nil")
	ErrNilOptions       = errors.New("tightening options are nil")
	ErrModelNotFound    = errors.New("logical model file not found")
	ErrSnapshotNotFound = errors.New("profiling snapshot file not found")
)
