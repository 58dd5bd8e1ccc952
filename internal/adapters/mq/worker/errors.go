package worker

import "errors"

// ErrShutdownTimeout is returned when workers do not stop in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")
