package hub

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/neuro-synapse/bridged/internal/mailbox"
)

// Inbound frame discriminants.
const (
	FrameChat          = "chat"
	FrameSubscribe     = "subscribe"
	FrameUnsubscribe   = "unsubscribe"
	FrameRequestInbox  = "request_inbox"
	FrameExecuteAction = "execute_action"
)

// Outbound frame discriminants.
const (
	FrameConnected        = "connected"
	FrameInboxUpdate      = "inbox_update"
	FrameSubscribed       = "subscribed"
	FrameUnsubscribed     = "unsubscribed"
	FrameActionResult     = "action_result"
	FrameActionInstances  = "action_instances"
	FrameAssistantMessage = "assistant_message"
	FrameError            = "error"
)

// InboundFrame is the decoded shape of one client request frame.
type InboundFrame struct {
	Type            string `json:"type"`
	SessionID       string `json:"sessionId,omitempty"`
	Content         string `json:"content,omitempty"`
	NewConversation bool   `json:"newConversation,omitempty"`
	InstanceID      string `json:"instanceId,omitempty"`
}

// DecodeFrame parses one raw client frame and validates its discriminant.
func DecodeFrame(raw []byte) (InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return InboundFrame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	frame.Type = strings.TrimSpace(frame.Type)
	if frame.Type == "" {
		return InboundFrame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return frame, nil
}

// ConnectedFrame greets one client after registration.
type ConnectedFrame struct {
	Type              string   `json:"type"`
	ClientID          string   `json:"clientId"`
	AvailableSessions []string `json:"availableSessions"`
}

// InboxUpdateFrame carries one full inbox snapshot.
type InboxUpdateFrame struct {
	Type   string            `json:"type"`
	Emails []mailbox.Summary `json:"emails"`
}

// SubscriptionFrame acknowledges subscribe/unsubscribe transitions.
type SubscriptionFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// AssistantMessageFrame carries one assistant reply to session subscribers.
type AssistantMessageFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// ActionResultFrame reports one completed action execution.
type ActionResultFrame struct {
	Type       string       `json:"type"`
	InstanceID string       `json:"instanceId"`
	SessionID  string       `json:"sessionId"`
	Result     ActionResult `json:"result"`
}

// ActionInstancesFrame announces executable action instances for a session.
type ActionInstancesFrame struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId"`
	Actions   []ActionView `json:"actions"`
}

// ErrorFrame surfaces one recoverable failure to the originating client.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// FrameType extracts the outbound discriminant for metrics labeling.
func FrameType(frame any) string {
	switch f := frame.(type) {
	case ConnectedFrame:
		return f.Type
	case InboxUpdateFrame:
		return f.Type
	case SubscriptionFrame:
		return f.Type
	case AssistantMessageFrame:
		return f.Type
	case ActionResultFrame:
		return f.Type
	case ActionInstancesFrame:
		return f.Type
	case ErrorFrame:
		return f.Type
	default:
		return "unknown"
	}
}
