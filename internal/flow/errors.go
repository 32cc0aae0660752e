package flow

import (
    "errors"
    "fmt"
    "sort"
    "strings"
)

// ErrStageNotReached is returned when a patch targets a stage the
// record has not yet reached by derivation.  It protects the no
// persisted-stage invariant: accepting such a patch could leave the
// field set between two derivable stages (an application written
// before the visit was approved, a payment before the application).
var ErrStageNotReached = errors.New("reservation has not reached this stage")

// ErrFlowClosed is returned when a tenant patch targets a record that
// is already confirmed or cancelled.
var ErrFlowClosed = errors.New("reservation is no longer editable")

// ValidationError aggregates per-field failures for one stage-advance
// attempt.  Field-level validators never throw; the flow collects
// their results here so the client can re-display each message next to
// the offending field.
type ValidationError struct {
    Fields map[string]string
}

// Error lists the failing fields in stable order.
func (e *ValidationError) Error() string {
    names := make([]string, 0, len(e.Fields))
    for f := range e.Fields {
        names = append(names, f)
    }
    sort.Strings(names)
    return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// newValidation builds an empty ValidationError ready to collect
// failures.
func newValidation() *ValidationError {
    return &ValidationError{Fields: map[string]string{}}
}

// add records a failure for a field.  The first message wins when a
// field is reported twice.
func (e *ValidationError) add(field, msg string) {
    if _, ok := e.Fields[field]; !ok {
        e.Fields[field] = msg
    }
}

// missing records a required field that was absent.
func (e *ValidationError) missing(field string) {
    e.add(field, "required")
}

// errOrNil returns the error when at least one failure was recorded.
func (e *ValidationError) errOrNil() error {
    if len(e.Fields) == 0 {
        return nil
    }
    return e
}
