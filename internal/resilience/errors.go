package resilience

import (
	"errors"
	"fmt"
	"time"

	"heliopulse/internal/models"
)

var (
	// ErrInvalidReading matches every *ValidationError
	ErrInvalidReading = errors.New("reading failed validation")
	// ErrNoData is returned when a reading carries nothing usable
	ErrNoData = errors.New("no usable data")
)

// ValidationError reports the field that disqualified a reading
type ValidationError struct {
	Group   models.MetricGroup
	Field   string
	Value   float64
	Min     float64
	Max     float64
	Missing bool
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("%s.%s: required field missing", e.Group, e.Field)
	}
	return fmt.Sprintf("%s.%s: value %g outside plausible range [%g, %g]", e.Group, e.Field, e.Value, e.Min, e.Max)
}

// Is lets errors.Is(err, ErrInvalidReading) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidReading
}

// CatastrophicError means the fallback itself could not be built.
// It is the only failure the fetcher surfaces to its caller.
type CatastrophicError struct {
	Group models.MetricGroup
	At    time.Time
	Cause error
}

func (e *CatastrophicError) Error() string {
	return fmt.Sprintf("catastrophic failure for group %s at %s: %v", e.Group, e.At.Format(time.RFC3339), e.Cause)
}

func (e *CatastrophicError) Unwrap() error { return e.Cause }
