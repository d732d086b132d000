package mailbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neuro-synapse/bridged/internal/testutil/testlog"
)

func seeded(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	base := time.Unix(1700000000, 0)
	store.Put(Summary{ID: "old", Subject: "oldest", ReceivedAt: base})
	store.Put(Summary{ID: "mid", Subject: "middle", ReceivedAt: base.Add(time.Hour)})
	store.Put(Summary{ID: "new", Subject: "newest", ReceivedAt: base.Add(2 * time.Hour)})
	return store
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	testlog.Start(t)
	store := seeded(t)

	out, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(out) != 2 || out[0].ID != "new" || out[1].ID != "mid" {
		t.Fatalf("unexpected order: %+v", out)
	}

	all, err := store.Recent(context.Background(), 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("zero limit must fall back to default: %v %v", all, err)
	}
}

func TestByIDsPreservesRequestOrder(t *testing.T) {
	testlog.Start(t)
	store := seeded(t)

	out, err := store.ByIDs(context.Background(), []string{"new", "missing", "old"})
	if err != nil {
		t.Fatalf("byids: %v", err)
	}
	if len(out) != 2 || out[0].ID != "new" || out[1].ID != "old" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestSetFlagAndMove(t *testing.T) {
	testlog.Start(t)
	store := seeded(t)
	ctx := context.Background()

	if err := store.SetFlag(ctx, "mid", FlagRead, true); err != nil {
		t.Fatalf("set read: %v", err)
	}
	if err := store.SetFlag(ctx, "mid", FlagStarred, true); err != nil {
		t.Fatalf("set starred: %v", err)
	}
	if err := store.Move(ctx, "mid", "archive"); err != nil {
		t.Fatalf("move: %v", err)
	}

	out, _ := store.ByIDs(ctx, []string{"mid"})
	if !out[0].Read || !out[0].Starred || out[0].Folder != "archive" {
		t.Fatalf("mutations not applied: %+v", out[0])
	}

	if err := store.SetFlag(ctx, "missing", FlagRead, true); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if err := store.SetFlag(ctx, "mid", Flag("pinned"), true); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
	if err := store.Move(ctx, "missing", "archive"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestSendValidatesAndLogs(t *testing.T) {
	testlog.Start(t)
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Send(ctx, Outgoing{Subject: "no recipient", Body: "x"}); !errors.Is(err, ErrInvalidOutgoing) {
		t.Fatalf("expected ErrInvalidOutgoing, got %v", err)
	}
	if err := store.Send(ctx, Outgoing{To: "a@example.com", Subject: "no body"}); !errors.Is(err, ErrInvalidOutgoing) {
		t.Fatalf("expected ErrInvalidOutgoing, got %v", err)
	}
	if err := store.Send(ctx, Outgoing{To: "a@example.com", Subject: "hi", Body: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := store.Sent()
	if len(sent) != 1 || sent[0].To != "a@example.com" {
		t.Fatalf("unexpected sent log: %+v", sent)
	}
}

func TestPutDefaultsFolderAndIgnoresBlankID(t *testing.T) {
	testlog.Start(t)
	store := NewMemoryStore()
	store.Put(Summary{ID: "  "})
	if store.Len() != 0 {
		t.Fatalf("blank id must be ignored")
	}
	store.Put(Summary{ID: "a"})
	out, _ := store.ByIDs(context.Background(), []string{"a"})
	if out[0].Folder != "inbox" {
		t.Fatalf("folder must default to inbox: %+v", out[0])
	}
}

func TestSeedSamplePopulates(t *testing.T) {
	testlog.Start(t)
	store := NewMemoryStore()
	SeedSample(store, time.Now())
	if store.Len() != 3 {
		t.Fatalf("expected 3 seeded messages, got %d", store.Len())
	}
}
