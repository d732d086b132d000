package hub

import "errors"

var (
	ErrSessionNotFound  = errors.New("hub: session not found")
	ErrActionNotFound   = errors.New("hub: action not found")
	ErrAlreadyExecuting = errors.New("hub: action already executing")
	ErrAlreadyExecuted  = errors.New("hub: action already executed")
	ErrTimeout          = errors.New("hub: action timed out")
	ErrStoreUnavailable = errors.New("hub: mailbox store unavailable")
	ErrMalformedFrame   = errors.New("hub: malformed frame")
)

// ErrorCode maps taxonomy sentinels to the wire error discriminants surfaced
// to clients in error frames.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFound"
	case errors.Is(err, ErrActionNotFound):
		return "ActionNotFound"
	case errors.Is(err, ErrAlreadyExecuting):
		return "AlreadyExecuting"
	case errors.Is(err, ErrAlreadyExecuted):
		return "AlreadyExecuted"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrMalformedFrame):
		return "MalformedFrame"
	default:
		return "InternalError"
	}
}
