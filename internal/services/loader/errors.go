package loader

import "fmt"

// ValidationError reports a malformed header or row. Row is 1-based
// with the header counting as row 1; Column is empty for header-level
// failures.
type ValidationError struct {
	Row     int
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 && e.Column != "" {
		return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

// LoadError reports a file-level failure: unreadable file, empty file,
// unsupported format or duplicate positions.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load %s: %s", e.Path, e.Message)
	}
	return e.Message
}
