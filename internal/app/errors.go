package service

import "errors"

// Sentinel errors returned by Service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate batch request")
	ErrBackpressure  = errors.New("batch queue is full")
	ErrEmptyBatch    = errors.New("batch has no profiles")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum size")
)
