package issue

import (
	"errors"
	"fmt"
)

var errEmptyPrefix = errors.New("branch prefix must not be empty")

// PrefixError reports a branch prefix that is not ASCII.
type PrefixError struct {
	Prefix string
}

func (e *PrefixError) Error() string {
	return fmt.Sprintf("branch prefix must be ASCII: %q", e.Prefix)
}
