package strategy

import (
	"fmt"
)

// BatchExecutionError reports that a unit failed inside a Strategy Runner
// batch. The entire batch result is discarded: partial results already
// computed by other workers are thrown away, because a silently-incomplete
// result is worse than a loud failure.
type BatchExecutionError struct {
	Strategy Kind
	Index    int
	Cause    error
}

// Error implements the error interface.
func (e *BatchExecutionError) Error() string {
	return fmt.Sprintf("batch failed under %s strategy at unit %d: %v", e.Strategy, e.Index, e.Cause)
}

// Unwrap returns the first failing unit's underlying error.
func (e *BatchExecutionError) Unwrap() error {
	return e.Cause
}

// SerializationError reports that a unit's input or output could not cross
// the process boundary. It is surfaced distinctly from computation failure so
// reports can attribute problems to the parallelism boundary itself rather
// than to the metric logic.
type SerializationError struct {
	Direction string // "encode" or "decode"
	Index     int    // unit index, -1 when not attributable to one unit
	Cause     error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s unit %d across process boundary: %v", e.Direction, e.Index, e.Cause)
	}
	return fmt.Sprintf("%s across process boundary: %v", e.Direction, e.Cause)
}

// Unwrap returns the underlying codec error.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// RemoteError carries a failure reported by a worker process. The original
// error type does not survive the boundary, only its message and class.
type RemoteError struct {
	Serialization bool
	Message       string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return e.Message
}
