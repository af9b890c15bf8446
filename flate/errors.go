package flate

import "fmt"

// FormatError reports any structural violation of the DEFLATE bitstream:
// a reserved block type, a malformed code-length table, an out-of-range
// symbol, or an inconsistent stored-block length pair.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string { return "flate: invalid stream: " + e.Detail }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Detail: fmt.Sprintf(format, args...)}
}
