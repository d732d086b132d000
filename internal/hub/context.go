package hub

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/agent"
	"github.com/neuro-synapse/bridged/internal/mailbox"
)

// ActionContext is the capability surface handed to one action execution:
// mailbox queries and mutations, AI invocation, and session messaging bound
// to the resolved session. Built fresh per invocation, never shared.
type ActionContext struct {
	session *Session
	store   mailbox.Store
	agent   agent.Executor
	logger  zerolog.Logger
	mutated atomic.Bool
}

func newActionContext(session *Session, store mailbox.Store, ai agent.Executor) *ActionContext {
	return &ActionContext{
		session: session,
		store:   store,
		agent:   ai,
		logger:  log.With().Str("session_id", session.ID).Logger(),
	}
}

// FetchRecent reads up to limit recent message summaries.
func (a *ActionContext) FetchRecent(ctx context.Context, limit int) ([]mailbox.Summary, error) {
	return a.store.Recent(ctx, limit)
}

// FetchByIDs reads message summaries by id.
func (a *ActionContext) FetchByIDs(ctx context.Context, ids []string) ([]mailbox.Summary, error) {
	return a.store.ByIDs(ctx, ids)
}

// MarkRead flips the read flag on one message.
func (a *ActionContext) MarkRead(ctx context.Context, id string, read bool) error {
	return a.mutate(a.store.SetFlag(ctx, id, mailbox.FlagRead, read))
}

// Star flips the starred flag on one message.
func (a *ActionContext) Star(ctx context.Context, id string, starred bool) error {
	return a.mutate(a.store.SetFlag(ctx, id, mailbox.FlagStarred, starred))
}

// MoveFolder reassigns one message to a folder.
func (a *ActionContext) MoveFolder(ctx context.Context, id string, folder string) error {
	return a.mutate(a.store.Move(ctx, id, folder))
}

// Send submits one outgoing message through the store.
func (a *ActionContext) Send(ctx context.Context, msg mailbox.Outgoing) error {
	return a.mutate(a.store.Send(ctx, msg))
}

// RunAgent invokes the AI boundary with the session conversation as context.
func (a *ActionContext) RunAgent(ctx context.Context, instruction string) (agent.Result, error) {
	res, err := a.agent.Run(ctx, instruction, ConversationContext(a.session))
	if err != nil {
		return agent.Result{}, err
	}
	a.logger.Debug().
		Float64("cost_usd", res.CostUSD).
		Dur("duration", res.Duration).
		Int("commands", len(res.Commands)).
		Msg("hub.context agent run complete")
	return res, nil
}

// AddUserMessage appends one user entry to the bound session.
func (a *ActionContext) AddUserMessage(text string) {
	a.session.AppendUserMessage(text)
}

// AddAssistantMessage appends one assistant entry to the bound session.
func (a *ActionContext) AddAssistantMessage(text string) {
	a.session.AppendAssistantMessage(text)
}

// AddSystemMessage appends one system entry to the bound session.
func (a *ActionContext) AddSystemMessage(text string) {
	a.session.AppendSystemMessage(text)
}

// Logger returns the session-scoped logger for action bodies.
func (a *ActionContext) Logger() zerolog.Logger {
	return a.logger
}

// Mutated reports whether any mailbox mutation succeeded through this context.
func (a *ActionContext) Mutated() bool {
	return a.mutated.Load()
}

func (a *ActionContext) mutate(err error) error {
	if err == nil {
		a.mutated.Store(true)
	}
	return err
}

// applyCommand maps one executor-requested side effect onto capability calls.
func (a *ActionContext) applyCommand(ctx context.Context, cmd agent.Command) error {
	switch cmd.Op {
	case agent.OpMarkRead:
		return a.MarkRead(ctx, cmd.MessageID, cmd.Value)
	case agent.OpStar:
		return a.Star(ctx, cmd.MessageID, cmd.Value)
	case agent.OpMove:
		return a.MoveFolder(ctx, cmd.MessageID, cmd.Folder)
	case agent.OpSend:
		return a.Send(ctx, mailbox.Outgoing{To: cmd.To, Subject: cmd.Subject, Body: cmd.Body})
	default:
		return fmt.Errorf("hub: unknown agent command op %q", cmd.Op)
	}
}

// ConversationContext flattens session history into the plain-text context
// format consumed by the AI boundary.
func ConversationContext(session *Session) string {
	history := session.History()
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
