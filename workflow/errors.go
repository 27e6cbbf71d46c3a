package workflow

import "errors"

var (
	// ErrEmptyQueue means every pending record is processed or assigned.
	// It is a normal terminal state, not a failure.
	ErrEmptyQueue = errors.New("no records left to review")

	ErrRecordNotFound  = errors.New("record not found in pending table")
	ErrNotOwner        = errors.New("record is assigned to another worker")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrLockNotObtained = errors.New("could not obtain table lock")
)

// ErrMissingSession is returned when an operation is called without a worker session.
var ErrMissingSession = errors.New("worker session is required")
