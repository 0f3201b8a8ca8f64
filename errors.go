package gopherwalk

import (
	"fmt"
	"io"
)

var errEOF = io.EOF

// joinf wraps an underlying error under one of this package's sentinel
// kinds.
func joinf(kind, err error) error {
	return fmt.Errorf("%w: %v", kind, err)
}
