package iptables

import (
	"errors"
	"fmt"
)

// UnsupportedError is returned when a backend cannot correctly service an
// operation. It carries the operation name so callers can detect capability
// mismatches at the call site instead of through corrupted firewall state.
type UnsupportedError struct {
	Op string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operation %s is not supported by this backend", e.Op)
}

// IsUnsupported reports whether err is an UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// CommitError is returned when applying a staged transaction fails: the
// restore process could not be run or exited with a non-success status. The
// wrapped error carries the process's diagnostic output.
//
// The staged transaction is discarded before the outcome is known, so a
// failed commit cannot be retried; the caller must rebuild the transaction
// from scratch.
type CommitError struct {
	Cmd string
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
