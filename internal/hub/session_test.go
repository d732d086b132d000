package hub

import (
	"testing"

	"github.com/neuro-synapse/bridged/internal/testutil/testlog"
)

func TestSessionSubscribeUnsubscribe(t *testing.T) {
	testlog.Start(t)
	registry := NewRegistry()
	session := newSession("session.a", registry)
	client := registry.Register(&fakeConn{})

	session.Subscribe(client)
	if !session.HasSubscribers() {
		t.Fatalf("expected subscriber")
	}
	if client.SessionID() != "session.a" {
		t.Fatalf("client session=%q", client.SessionID())
	}

	session.Unsubscribe(client)
	if session.HasSubscribers() {
		t.Fatalf("expected empty subscriber set")
	}
}

func TestSessionHistoryAppendAndEndConversation(t *testing.T) {
	testlog.Start(t)
	session := newSession("session.a", NewRegistry())
	session.AppendUserMessage("hello")
	session.AppendAssistantMessage("hi there")
	session.AppendSystemMessage("archived 2 messages")

	history := session.History()
	if len(history) != 3 {
		t.Fatalf("unexpected history len=%d", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "hello" {
		t.Fatalf("unexpected first entry: %+v", history[0])
	}
	if history[1].Role != RoleAssistant || history[2].Role != RoleSystem {
		t.Fatalf("unexpected roles: %+v", history)
	}

	session.EndConversation()
	if len(session.History()) != 0 {
		t.Fatalf("history should be truncated")
	}
	if session.ID != "session.a" {
		t.Fatalf("session id must survive end of conversation")
	}
}

func TestSessionBroadcastSurvivesOneFailedSend(t *testing.T) {
	testlog.Start(t)
	registry := NewRegistry()
	session := newSession("session.a", registry)

	good1 := &fakeConn{}
	bad := &fakeConn{fail: true}
	good2 := &fakeConn{}
	for _, conn := range []*fakeConn{good1, bad, good2} {
		session.Subscribe(registry.Register(conn))
	}

	session.Broadcast(AssistantMessageFrame{Type: FrameAssistantMessage, SessionID: session.ID, Content: "x"})

	if len(good1.ofType(FrameAssistantMessage)) != 1 {
		t.Fatalf("good1 missed the broadcast")
	}
	if len(good2.ofType(FrameAssistantMessage)) != 1 {
		t.Fatalf("good2 missed the broadcast")
	}
	if len(bad.all()) != 0 {
		t.Fatalf("bad conn should have recorded nothing")
	}
}

func TestSessionBroadcastSkipsUnregisteredClients(t *testing.T) {
	testlog.Start(t)
	registry := NewRegistry()
	session := newSession("session.a", registry)

	conn := &fakeConn{}
	client := registry.Register(conn)
	session.Subscribe(client)
	registry.Unregister(client.ID)

	session.Broadcast(AssistantMessageFrame{Type: FrameAssistantMessage, SessionID: session.ID, Content: "x"})
	if len(conn.all()) != 0 {
		t.Fatalf("torn-down client should not receive frames")
	}
}
