package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key does not exist or its entry has
	// expired.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidKey is returned for keys the store refuses to hold.
	ErrInvalidKey = errors.New("invalid key")

	// ErrCorrupt marks a stored value that can no longer be decoded or
	// fails validation after decoding.
	ErrCorrupt = errors.New("stored value is corrupt")

	// ErrTransactionFailed is returned when a transaction cannot begin,
	// commit or roll back.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrSnapshotNotFound indicates that no user state snapshot has been
	// saved yet.
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)
)

// Op names the store operation an OpError came from.
type Op string

// Store operations
const (
	OpGet      Op = "get"
	OpPut      Op = "put"
	OpDelete   Op = "delete"
	OpKeys     Op = "keys"
	OpPurge    Op = "purge"
	OpEncode   Op = "encode"
	OpDecode   Op = "decode"
	OpBegin    Op = "begin"
	OpCommit   Op = "commit"
	OpRollback Op = "rollback"
)

// OpError describes a failed store operation on one key. Key is a prefix for
// range scans and empty for table-wide operations.
type OpError struct {
	Op  Op
	Key string
	Msg string
	Err error
}

// NewOpError wraps err with the operation and key it failed on.
func NewOpError(op Op, key, msg string, err error) *OpError {
	return &OpError{Op: op, Key: key, Msg: msg, Err: err}
}

func (e *OpError) Error() string {
	s := "kv " + string(e.Op)
	if e.Key != "" {
		s += fmt.Sprintf(" %q", e.Key)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports decode failures as ErrCorrupt and transaction control failures
// as ErrTransactionFailed.
func (e *OpError) Is(target error) bool {
	switch target {
	case ErrCorrupt:
		return e.Op == OpDecode
	case ErrTransactionFailed:
		return e.Op == OpBegin || e.Op == OpCommit || e.Op == OpRollback
	}
	return false
}

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
