package hub

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/agent"
	"github.com/neuro-synapse/bridged/internal/observability"
)

// Router is the protocol boundary: it decodes inbound client frames, enforces
// the per-client subscription state machine, dispatches to the table,
// synchronizer, and executor, and writes outbound frames. It is the only
// component that moves a client between sessions, which is what keeps a
// client in at most one subscriber set at any time.
type Router struct {
	registry    *Registry
	table       *Table
	sync        *Synchronizer
	executor    *Executor
	agent       agent.Executor
	chatTimeout time.Duration
}

var _ InstanceSink = (*Router)(nil)

// NewRouter wires the protocol boundary; zero chatTimeout falls back to 30s.
func NewRouter(registry *Registry, table *Table, sync *Synchronizer, executor *Executor, ai agent.Executor, chatTimeout time.Duration) *Router {
	if chatTimeout <= 0 {
		chatTimeout = 30 * time.Second
	}
	return &Router{
		registry:    registry,
		table:       table,
		sync:        sync,
		executor:    executor,
		agent:       ai,
		chatTimeout: chatTimeout,
	}
}

// HandleConnect registers one transport handle and greets it with the
// welcome frame listing addressable sessions.
func (r *Router) HandleConnect(conn Conn) *Client {
	client := r.registry.Register(conn)
	observability.RecordConnection(1)
	r.send(client, ConnectedFrame{
		Type:              FrameConnected,
		ClientID:          client.ID,
		AvailableSessions: r.table.IDs(),
	})
	log.Info().Str("client_id", client.ID).Msg("hub.router client connected")
	return client
}

// HandleDisconnect detaches one client from its session, schedules session
// cleanup when it drained the subscriber set, and unregisters the handle.
func (r *Router) HandleDisconnect(client *Client) {
	r.detach(client)
	r.registry.Unregister(client.ID)
	observability.RecordConnection(-1)
	log.Info().Str("client_id", client.ID).Msg("hub.router client disconnected")
}

// HandleFrame decodes and dispatches one inbound frame. Every failure path
// answers the originating client with an error frame; nothing here
// disconnects a client or crashes the process.
func (r *Router) HandleFrame(ctx context.Context, client *Client, raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		r.sendError(client, err)
		return
	}
	observability.RecordFrame("in", frame.Type)

	switch frame.Type {
	case FrameChat:
		r.handleChat(client, frame)
	case FrameSubscribe:
		r.handleSubscribe(client, frame)
	case FrameUnsubscribe:
		r.handleUnsubscribe(client, frame)
	case FrameRequestInbox:
		r.handleRequestInbox(ctx, client)
	case FrameExecuteAction:
		r.handleExecuteAction(client, frame)
	default:
		log.Debug().Str("client_id", client.ID).Str("type", frame.Type).Msg("hub.router unknown frame type")
		r.sendError(client, ErrMalformedFrame)
	}
}

// AnnounceInstances broadcasts the executable instance set to a session's
// subscribers; sessions nobody addressed yet are skipped.
func (r *Router) AnnounceInstances(sessionID string, actions []ActionView) {
	session, ok := r.table.Get(sessionID)
	if !ok {
		return
	}
	session.Broadcast(ActionInstancesFrame{
		Type:      FrameActionInstances,
		SessionID: session.ID,
		Actions:   actions,
	})
}

// handleChat appends the user message, then invokes the AI boundary off the
// mutation path and broadcasts the assistant reply to the session.
func (r *Router) handleChat(client *Client, frame InboundFrame) {
	content := strings.TrimSpace(frame.Content)
	if content == "" {
		r.sendError(client, ErrMalformedFrame)
		return
	}

	session := r.table.GetOrCreate(frame.SessionID)
	if client.SessionID() != session.ID {
		r.attach(client, session)
	}
	if frame.NewConversation {
		session.EndConversation()
	}
	session.AppendUserMessage(content)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.chatTimeout)
		defer cancel()
		res, err := r.agent.Run(ctx, content, ConversationContext(session))
		if err != nil {
			log.Warn().Str("session_id", session.ID).Err(err).Msg("hub.router chat agent failed")
			r.sendError(client, ErrTimeout)
			return
		}
		session.AppendAssistantMessage(res.Text)
		log.Info().
			Str("session_id", session.ID).
			Float64("cost_usd", res.CostUSD).
			Dur("agent_duration", res.Duration).
			Msg("hub.router chat reply ready")
		session.Broadcast(AssistantMessageFrame{
			Type:      FrameAssistantMessage,
			SessionID: session.ID,
			Content:   res.Text,
		})
	}()
}

// handleSubscribe moves the client onto the target session, detaching it from
// any previous session first.
func (r *Router) handleSubscribe(client *Client, frame InboundFrame) {
	sessionID := strings.TrimSpace(frame.SessionID)
	if sessionID == "" {
		r.sendError(client, ErrMalformedFrame)
		return
	}
	if client.SessionID() == sessionID {
		r.send(client, SubscriptionFrame{Type: FrameSubscribed, SessionID: sessionID})
		return
	}
	session := r.table.GetOrCreate(sessionID)
	r.attach(client, session)
}

// handleUnsubscribe detaches the client from its current session.
func (r *Router) handleUnsubscribe(client *Client, frame InboundFrame) {
	sessionID := strings.TrimSpace(frame.SessionID)
	current := client.SessionID()
	if sessionID != "" && sessionID != current {
		r.sendError(client, ErrSessionNotFound)
		return
	}
	r.detach(client)
	r.send(client, SubscriptionFrame{Type: FrameUnsubscribed, SessionID: current})
}

// handleRequestInbox answers one client with an on-demand inbox snapshot.
func (r *Router) handleRequestInbox(ctx context.Context, client *Client) {
	summaries, err := r.sync.SnapshotNow(ctx)
	if err != nil {
		r.sendError(client, err)
		return
	}
	r.send(client, InboxUpdateFrame{Type: FrameInboxUpdate, Emails: summaries})
}

// handleExecuteAction runs the instance off the read loop and broadcasts the
// result to whoever is subscribed when it is ready.
func (r *Router) handleExecuteAction(client *Client, frame InboundFrame) {
	instanceID := strings.TrimSpace(frame.InstanceID)
	sessionID := strings.TrimSpace(frame.SessionID)
	if instanceID == "" || sessionID == "" {
		r.sendError(client, ErrMalformedFrame)
		return
	}

	go func() {
		result, err := r.executor.Execute(context.Background(), instanceID, sessionID)
		if err != nil {
			r.sendError(client, err)
			return
		}
		session, ok := r.table.Get(sessionID)
		if !ok {
			// Session drained and was reaped while the action ran; the
			// result has nowhere to go.
			log.Warn().Str("session_id", sessionID).Msg("hub.router action result dropped, session gone")
			return
		}
		session.Broadcast(ActionResultFrame{
			Type:       FrameActionResult,
			InstanceID: instanceID,
			SessionID:  session.ID,
			Result:     result,
		})
	}()
}

// attach subscribes the client to session, enforcing the one-session rule.
func (r *Router) attach(client *Client, session *Session) {
	r.detach(client)
	session.Subscribe(client)
	r.send(client, SubscriptionFrame{Type: FrameSubscribed, SessionID: session.ID})
	if actions := r.executor.InstancesForSession(session.ID); len(actions) > 0 {
		r.send(client, ActionInstancesFrame{
			Type:      FrameActionInstances,
			SessionID: session.ID,
			Actions:   actions,
		})
	}
}

// detach removes the client from its current session, if any, and schedules
// cleanup when the session drained.
func (r *Router) detach(client *Client) {
	current := client.SessionID()
	if current == "" {
		return
	}
	if session, ok := r.table.Get(current); ok {
		session.Unsubscribe(client)
		if !session.HasSubscribers() {
			r.table.ScheduleCleanup(session.ID)
		}
	}
	client.setSessionID("")
}

func (r *Router) send(client *Client, frame any) {
	if err := client.Send(frame); err != nil {
		observability.RecordBroadcastFailure()
		log.Warn().Str("client_id", client.ID).Err(err).Msg("hub.router send failed")
		return
	}
	observability.RecordFrame("out", FrameType(frame))
}

func (r *Router) sendError(client *Client, err error) {
	r.send(client, ErrorFrame{Type: FrameError, Error: ErrorCode(err)})
}
