package acquire

import (
	"errors"
	"strings"

	"github.com/sumwave/otodl/internal/errclass"
)

var (
	// ErrUnknownService is returned for services the pipeline does not
	// support. The request is rejected up front, never silently dropped.
	ErrUnknownService = errors.New("unknown service")

	// ErrTempDirExhausted is returned when 500 fresh UUIDs all collided
	// with existing temp directories.
	ErrTempDirExhausted = errors.New("gave up allocating a temp directory after 500 UUID collisions")
)

// AcquireError carries the classified error codes collected from tool
// output alongside the underlying failure.
type AcquireError struct {
	Codes []errclass.Code
	Err   error
}

func (e *AcquireError) Error() string {
	if len(e.Codes) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + " [" + strings.Join(e.Codes, ",") + "]"
}

func (e *AcquireError) Unwrap() error { return e.Err }

// Triage partitions the collected codes into severity buckets.
func (e *AcquireError) Triage() errclass.Triage {
	return errclass.Partition(e.Codes)
}

func hasCode(codes []errclass.Code, want errclass.Code) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

// appendCode adds a code, skipping consecutive duplicates.
func appendCode(codes []errclass.Code, c errclass.Code) []errclass.Code {
	if len(codes) > 0 && codes[len(codes)-1] == c {
		return codes
	}
	return append(codes, c)
}
