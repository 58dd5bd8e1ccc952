package scoring

import "errors"

// ErrNonFinite is returned when a profile number is NaN or infinite.
var ErrNonFinite = errors.New("profile value is not finite")
