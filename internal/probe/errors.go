package probe

import "errors"

// Error constants.
var (
	ErrUnhealthy    = errors.New("service is not healthy")
	ErrMismatch     = errors.New("response does not match the reference scorer")
	ErrBatchTimeout = errors.New("batch did not complete in time")
	ErrNoProfiles   = errors.New("no profiles to submit")
)
