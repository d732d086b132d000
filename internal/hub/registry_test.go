package hub

import (
	"testing"

	"github.com/neuro-synapse/bridged/internal/testutil/testlog"
)

func TestRegistryRegisterAssignsUniqueIDs(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		client := r.Register(&fakeConn{})
		if client.ID == "" {
			t.Fatalf("empty client id")
		}
		if _, dup := seen[client.ID]; dup {
			t.Fatalf("duplicate client id %q", client.ID)
		}
		seen[client.ID] = struct{}{}
	}
	if r.Count() != 50 {
		t.Fatalf("unexpected count=%d", r.Count())
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	client := r.Register(&fakeConn{})
	r.Unregister(client.ID)
	r.Unregister(client.ID)
	r.Unregister("client.unknown")
	if r.Count() != 0 {
		t.Fatalf("unexpected count=%d", r.Count())
	}
	if _, ok := r.Get(client.ID); ok {
		t.Fatalf("client should be gone")
	}
}

func TestRegistryAllIsSnapshot(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	for i := 0; i < 10; i++ {
		r.Register(&fakeConn{})
	}
	snapshot := r.All()
	for _, client := range snapshot {
		r.Unregister(client.ID)
	}
	if len(snapshot) != 10 {
		t.Fatalf("snapshot mutated, len=%d", len(snapshot))
	}
	if r.Count() != 0 {
		t.Fatalf("registry should drain, count=%d", r.Count())
	}
}
