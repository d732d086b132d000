package hub

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn records outbound frames; set fail to simulate a dead socket.
type fakeConn struct {
	mu     sync.Mutex
	frames []any
	fail   bool
}

func (f *fakeConn) WriteFrame(frame any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("socket closed")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeConn) all() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeConn) ofType(frameType string) []any {
	out := make([]any, 0, 4)
	for _, frame := range f.all() {
		if FrameType(frame) == frameType {
			out = append(out, frame)
		}
	}
	return out
}

// waitForFrame polls until the conn has received at least want frames of the
// given type, failing the test on deadline.
func waitForFrame(t *testing.T, conn *fakeConn, frameType string, want int) []any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := conn.ofType(frameType); len(got) >= want {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %q frame(s), have %v", want, frameType, conn.all())
	return nil
}

type countingKicker struct {
	mu    sync.Mutex
	kicks int
}

func (k *countingKicker) Kick() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kicks++
}

func (k *countingKicker) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kicks
}
