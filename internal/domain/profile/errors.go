package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput is matched by every parse failure.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError maps form field names to what is wrong with them.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) hold.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
