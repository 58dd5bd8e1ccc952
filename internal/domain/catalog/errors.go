package catalog

import "errors"

// Sentinel errors for catalog lookups and loading.
var (
	ErrIntegrity = errors.New("catalog integrity violation")
	ErrNotFound  = errors.New("college not found")
)
