package ws

import "errors"

// Handler errors. All of these are caught at the read-loop boundary and
// converted to a client-visible "error" event, the connection stays open.
var (
	ErrChatNotFound = errors.New("chat not found")
	ErrAccessDenied = errors.New("access denied")
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// PersistenceError wraps an underlying store failure. The client only ever
// sees the handler's generic fallback message, the cause is logged
// server-side.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence error in " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// clientErrorMessage maps a handler error to the message emitted on the
// "error" event. Store failures fall through to the handler's generic
// fallback so internals never leak to the client.
func clientErrorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, ErrAccessDenied):
		return "Access denied"
	case errors.Is(err, ErrEmptyMessage):
		return "Message cannot be empty"
	}
	return fallback
}
