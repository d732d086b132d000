package mailbox

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMessageNotFound = errors.New("mailbox: message not found")
	ErrUnknownFlag     = errors.New("mailbox: unknown flag")
	ErrInvalidOutgoing = errors.New("mailbox: invalid outgoing message")
)

// Flag selects one mutable per-message boolean.
type Flag string

const (
	FlagRead    Flag = "read"
	FlagStarred Flag = "starred"
)

// Summary is one message entry as delivered in inbox snapshots.
type Summary struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	Folder     string    `json:"folder"`
	Read       bool      `json:"read"`
	Starred    bool      `json:"starred"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Outgoing is one message submitted for delivery through the store.
type Outgoing struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate enforces required outgoing-message fields.
func (o Outgoing) Validate() error {
	if o.To == "" {
		return ErrInvalidOutgoing
	}
	if o.Body == "" {
		return ErrInvalidOutgoing
	}
	return nil
}

// Store is the mailbox query/command boundary consumed by the coordinator.
// Implementations must be safe for concurrent use; the coordinator shares one
// store between the inbox synchronizer and action execution.
type Store interface {
	Recent(ctx context.Context, limit int) ([]Summary, error)
	ByIDs(ctx context.Context, ids []string) ([]Summary, error)
	SetFlag(ctx context.Context, id string, flag Flag, value bool) error
	Move(ctx context.Context, id string, folder string) error
	Send(ctx context.Context, msg Outgoing) error
}
