package workspace

import (
	"errors"
	"fmt"
)

// ErrDatasetNotFound is returned for an id the manifest does not know.
var ErrDatasetNotFound = errors.New("dataset not found")

// ExtensionError rejects a file whose extension is not allowed.
type ExtensionError struct {
	Name    string
	Allowed []string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("unsupported file type: %s (allowed: %v)", e.Name, e.Allowed)
}

// TooLargeError rejects an upload above the configured size cap.
type TooLargeError struct {
	Name  string
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s exceeds %d bytes", e.Name, e.Limit)
}
