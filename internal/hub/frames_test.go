package hub

import (
	"errors"
	"testing"

	"github.com/neuro-synapse/bridged/internal/testutil/testlog"
)

func TestDecodeFrameParsesInbound(t *testing.T) {
	testlog.Start(t)
	raw := `{"type":"chat","sessionId":"session.a","content":"hello","newConversation":true}`
	frame, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Type != FrameChat || frame.SessionID != "session.a" || frame.Content != "hello" || !frame.NewConversation {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{`{broken`, `{"sessionId":"session.a"}`, `{"type":"  "}`} {
		if _, err := DecodeFrame([]byte(raw)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("input %q: expected ErrMalformedFrame, got %v", raw, err)
		}
	}
}

func TestErrorCodeMapping(t *testing.T) {
	testlog.Start(t)
	cases := map[error]string{
		ErrSessionNotFound:           "SessionNotFound",
		ErrActionNotFound:            "ActionNotFound",
		ErrAlreadyExecuting:          "AlreadyExecuting",
		ErrAlreadyExecuted:           "AlreadyExecuted",
		ErrTimeout:                   "Timeout",
		ErrStoreUnavailable:          "StoreUnavailable",
		ErrMalformedFrame:            "MalformedFrame",
		errors.New("something else"): "InternalError",
	}
	for err, want := range cases {
		if got := ErrorCode(err); got != want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestFrameTypeCoversOutboundFrames(t *testing.T) {
	testlog.Start(t)
	frames := []any{
		ConnectedFrame{Type: FrameConnected},
		InboxUpdateFrame{Type: FrameInboxUpdate},
		SubscriptionFrame{Type: FrameSubscribed},
		AssistantMessageFrame{Type: FrameAssistantMessage},
		ActionResultFrame{Type: FrameActionResult},
		ActionInstancesFrame{Type: FrameActionInstances},
		ErrorFrame{Type: FrameError},
	}
	for _, frame := range frames {
		if FrameType(frame) == "unknown" {
			t.Fatalf("outbound frame %T unlabeled", frame)
		}
	}
	if FrameType(struct{}{}) != "unknown" {
		t.Fatalf("foreign values must label as unknown")
	}
}
