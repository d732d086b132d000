// Package agent owns the boundary to the AI/task executor consumed by the
// coordinator. The executor is opaque: it receives a natural-language
// instruction plus conversation context and returns generated text and/or
// mailbox commands for the caller to apply.
package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrEmptyInstruction = errors.New("agent: empty instruction")

// CommandOp enumerates mailbox side effects the executor may request.
type CommandOp string

const (
	OpMarkRead CommandOp = "mark_read"
	OpStar     CommandOp = "star"
	OpMove     CommandOp = "move"
	OpSend     CommandOp = "send"
)

// Command is one mailbox side effect requested by the executor.
type Command struct {
	Op        CommandOp `json:"op"`
	MessageID string    `json:"messageId,omitempty"`
	Folder    string    `json:"folder,omitempty"`
	To        string    `json:"to,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body,omitempty"`
	Value     bool      `json:"value,omitempty"`
}

// Result is one completed executor run with usage accounting.
type Result struct {
	Text     string
	Commands []Command
	CostUSD  float64
	Duration time.Duration
}

// Executor runs one instruction against the AI boundary. Implementations must
// honor ctx cancellation; the coordinator bounds every call with a timeout.
type Executor interface {
	Run(ctx context.Context, instruction string, context string) (Result, error)
}

// ScriptedExecutor replays queued results in order and echoes the instruction
// once the queue is drained. It records every call for inspection and serves
// both tests and local demo runs.
type ScriptedExecutor struct {
	mu      sync.Mutex
	queue   []scriptedStep
	calls   []string
	started chan string
	release chan struct{}
	gated   bool
}

type scriptedStep struct {
	result Result
	err    error
}

// NewScriptedExecutor constructs an ungated executor with an empty queue.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{}
}

// NewGatedExecutor constructs an executor that blocks each Run until Release
// is called, signaling call start on Started.
func NewGatedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{
		started: make(chan string, 32),
		release: make(chan struct{}, 32),
		gated:   true,
	}
}

// Enqueue appends one scripted result to the replay queue.
func (s *ScriptedExecutor) Enqueue(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scriptedStep{result: res})
}

// EnqueueError appends one scripted failure to the replay queue.
func (s *ScriptedExecutor) EnqueueError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scriptedStep{err: err})
}

// Run pops the next scripted step, or echoes the instruction when drained.
func (s *ScriptedExecutor) Run(ctx context.Context, instruction string, _ string) (Result, error) {
	if strings.TrimSpace(instruction) == "" {
		return Result{}, ErrEmptyInstruction
	}

	s.mu.Lock()
	s.calls = append(s.calls, instruction)
	var step scriptedStep
	hasStep := len(s.queue) > 0
	if hasStep {
		step = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	if s.gated {
		select {
		case s.started <- instruction:
		default:
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-s.release:
		}
	}

	if !hasStep {
		return Result{Text: "ack: " + instruction, Duration: time.Millisecond}, nil
	}
	if step.err != nil {
		return Result{}, step.err
	}
	return step.result, nil
}

// Started exposes the call-start signal channel of a gated executor.
func (s *ScriptedExecutor) Started() <-chan string {
	return s.started
}

// Release unblocks one pending gated Run call.
func (s *ScriptedExecutor) Release() {
	if s.gated {
		s.release <- struct{}{}
	}
}

// Calls returns a copy of instructions seen so far.
func (s *ScriptedExecutor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
