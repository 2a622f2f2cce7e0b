package taskstore

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs a session and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTaskNotFound is returned for ids missing from the local collection.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSessionChanged is returned when the collection was reset while a
	// request was in flight. The result is dropped.
	ErrSessionChanged = errors.New("session changed during the request")
)

// RemoteError wraps a backend rejection or transport failure.
// Its message is the backend message verbatim.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

