package proc

import "fmt"

// ProcessError signals a failure of a process-control operation (spawn,
// signal) or an unexpected exit during an expected-alive phase.
type ProcessError struct {
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s failed: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
