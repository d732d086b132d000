package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/agent"
	"github.com/neuro-synapse/bridged/internal/mailbox"
	"github.com/neuro-synapse/bridged/internal/observability"
)

var ErrDuplicateInstance = errors.New("hub: action instance already registered")

// ActionInstance is one authorized, one-shot unit of work bound to a session.
// Immutable once registered; re-execution requires a new instance.
type ActionInstance struct {
	InstanceID  string            `json:"instanceId"`
	SessionID   string            `json:"sessionId"`
	Name        string            `json:"name"`
	Instruction string            `json:"instruction"`
	Inputs      map[string]string `json:"inputs,omitempty"`
}

// Validate enforces required instance identity fields.
func (a ActionInstance) Validate() error {
	if strings.TrimSpace(a.InstanceID) == "" {
		return fmt.Errorf("%w: missing instance id", ErrActionNotFound)
	}
	if strings.TrimSpace(a.SessionID) == "" {
		return fmt.Errorf("%w: missing session id", ErrSessionNotFound)
	}
	if strings.TrimSpace(a.Instruction) == "" {
		return fmt.Errorf("hub: instance %s has no instruction", a.InstanceID)
	}
	return nil
}

// ActionView is the client-facing shape of one executable instance.
type ActionView struct {
	InstanceID string `json:"instanceId"`
	Name       string `json:"name"`
}

// ActionResult is the structured outcome of one action execution.
type ActionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type instanceState string

const (
	stateQueued    instanceState = "queued"
	stateRunning   instanceState = "running"
	stateSucceeded instanceState = "succeeded"
	stateFailed    instanceState = "failed"
)

type instanceRecord struct {
	inst  ActionInstance
	state instanceState
}

// Kicker requests an immediate inbox broadcast after mailbox mutation.
type Kicker interface {
	Kick()
}

// InstanceSink receives instance announcements for routing to subscribers.
type InstanceSink interface {
	AnnounceInstances(sessionID string, actions []ActionView)
}

// Executor runs registered action instances at most once each: it resolves
// the target session, marks the instance in flight atomically, builds a fresh
// capability context, enforces the execution timeout, and shapes the result.
// Side effects flow through the context functions, never the executor itself.
type Executor struct {
	table   *Table
	store   mailbox.Store
	agent   agent.Executor
	kicker  Kicker
	timeout time.Duration

	mu        sync.Mutex
	instances map[string]*instanceRecord
	sink      InstanceSink
}

// NewExecutor constructs an action executor; zero timeout falls back to 30s.
func NewExecutor(table *Table, store mailbox.Store, ai agent.Executor, kicker Kicker, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		table:     table,
		store:     store,
		agent:     ai,
		kicker:    kicker,
		timeout:   timeout,
		instances: make(map[string]*instanceRecord),
	}
}

// SetInstanceSink wires the announcement route; nil disables announcements.
func (e *Executor) SetInstanceSink(sink InstanceSink) {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
}

// RegisterInstance queues one instance for execution and announces the
// session's executable set to its subscribers.
func (e *Executor) RegisterInstance(inst ActionInstance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	if _, ok := e.instances[inst.InstanceID]; ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateInstance, inst.InstanceID)
	}
	e.instances[inst.InstanceID] = &instanceRecord{inst: inst, state: stateQueued}
	sink := e.sink
	e.mu.Unlock()

	if sink != nil {
		sink.AnnounceInstances(inst.SessionID, e.InstancesForSession(inst.SessionID))
	}
	return nil
}

// InstancesForSession returns executable (queued) instances for one session.
func (e *Executor) InstancesForSession(sessionID string) []ActionView {
	key := strings.TrimSpace(sessionID)
	e.mu.Lock()
	out := make([]ActionView, 0, 4)
	for _, rec := range e.instances {
		if rec.inst.SessionID == key && rec.state == stateQueued {
			out = append(out, ActionView{InstanceID: rec.inst.InstanceID, Name: rec.inst.Name})
		}
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].InstanceID < out[j].InstanceID
	})
	return out
}

// PendingActions counts in-flight executions for one session; the table
// consults this before destroying a drained session.
func (e *Executor) PendingActions(sessionID string) int {
	key := strings.TrimSpace(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, rec := range e.instances {
		if rec.inst.SessionID == key && rec.state == stateRunning {
			count++
		}
	}
	return count
}

// Execute runs one instance at most once. Preconditions: the session must
// exist and the instance must be known and not yet executed. On timeout the
// result is {success:false, error:"timeout"}; a late-arriving outcome from
// the timed-out run is discarded, not double-reported.
func (e *Executor) Execute(ctx context.Context, instanceID, sessionID string) (ActionResult, error) {
	// Instance resolution comes first so an unknown instance never observes,
	// let alone creates, session state.
	e.mu.Lock()
	rec, ok := e.instances[strings.TrimSpace(instanceID)]
	e.mu.Unlock()
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrActionNotFound, instanceID)
	}

	session, sessionOK := e.table.Get(sessionID)
	if !sessionOK {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	e.mu.Lock()
	if rec.inst.SessionID != session.ID {
		e.mu.Unlock()
		return ActionResult{}, fmt.Errorf("%w: %s", ErrActionNotFound, instanceID)
	}
	switch rec.state {
	case stateRunning:
		e.mu.Unlock()
		return ActionResult{}, fmt.Errorf("%w: %s", ErrAlreadyExecuting, instanceID)
	case stateSucceeded, stateFailed:
		e.mu.Unlock()
		return ActionResult{}, fmt.Errorf("%w: %s", ErrAlreadyExecuted, instanceID)
	}
	rec.state = stateRunning
	e.mu.Unlock()

	actx := newActionContext(session, e.store, e.agent)
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan ActionResult, 1)
	go func() {
		result := e.runAction(runCtx, rec.inst, actx)
		if !e.finish(rec, result) {
			log.Warn().
				Str("instance_id", rec.inst.InstanceID).
				Msg("hub.executor late result discarded")
			return
		}
		if result.Success && actx.Mutated() && e.kicker != nil {
			e.kicker.Kick()
		}
		done <- result
	}()

	select {
	case result := <-done:
		outcome := "failure"
		if result.Success {
			outcome = "success"
		}
		observability.RecordActionExecution(outcome, time.Since(start))
		log.Info().
			Str("instance_id", rec.inst.InstanceID).
			Str("session_id", session.ID).
			Str("outcome", outcome).
			Dur("duration", time.Since(start)).
			Msg("hub.executor action finished")
		return result, nil
	case <-runCtx.Done():
		e.markTimedOut(rec)
		observability.RecordActionExecution("timeout", time.Since(start))
		log.Warn().
			Str("instance_id", rec.inst.InstanceID).
			Str("session_id", session.ID).
			Dur("timeout", e.timeout).
			Msg("hub.executor action timed out")
		return ActionResult{Success: false, Error: "timeout"}, nil
	}
}

// runAction performs the instruction through the AI boundary, then applies
// any requested mailbox commands via the capability context.
func (e *Executor) runAction(ctx context.Context, inst ActionInstance, actx *ActionContext) ActionResult {
	res, err := actx.RunAgent(ctx, inst.Instruction)
	if err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}

	for _, cmd := range res.Commands {
		if err := actx.applyCommand(ctx, cmd); err != nil {
			return ActionResult{Success: false, Error: err.Error()}
		}
	}

	if res.Text != "" {
		actx.AddAssistantMessage(res.Text)
	}
	return ActionResult{
		Success: true,
		Data: map[string]any{
			"text":       res.Text,
			"commands":   len(res.Commands),
			"costUsd":    res.CostUSD,
			"durationMs": res.Duration.Milliseconds(),
		},
	}
}

// finish transitions running->terminal; returns false when the instance was
// already settled (timeout won the race).
func (e *Executor) finish(rec *instanceRecord, result ActionResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec.state != stateRunning {
		return false
	}
	if result.Success {
		rec.state = stateSucceeded
	} else {
		rec.state = stateFailed
	}
	return true
}

func (e *Executor) markTimedOut(rec *instanceRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec.state == stateRunning {
		rec.state = stateFailed
	}
}
