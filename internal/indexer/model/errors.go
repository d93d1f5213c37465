package model

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned for operations on an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// StateConflictError reports a job action that is illegal from the current status.
type StateConflictError struct {
	Status JobStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("invalid transition from '%s'", e.Status)
}

// TransportError reports a network or HTTP failure reaching the node.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a JSON-RPC error envelope or an absent result.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc %s: %s (code %d)", e.Method, e.Message, e.Code)
	}
	return fmt.Sprintf("rpc %s: %s", e.Method, e.Message)
}

// StorageError reports a failed query or constraint violation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
