// Package fsm implements the condoor finite state machine engine: the
// single primitive every command dialog, login sequence, and reload
// automaton in the system is built on. Ported from condoor/fsm.py.
//
// An Engine runs a compiled transition table of (event, state) ->
// (next state, action, timeout) until it reaches state -1 or exhausts
// MaxTransitions. Actions are a closed tagged variant: a callback, a
// raised error, or no-op (the nil Action).
package fsm

import (
	"fmt"
	"time"

	cerrors "github.com/decolnz/condoor/errors"
	"go.uber.org/zap"
)

// timeoutEvent and eofEvent are sentinel Event values standing in for
// pexpect.TIMEOUT and pexpect.EOF in the original: event tables list
// them alongside ordinary patterns so a timeout or hangup can itself
// trigger a state transition instead of always being fatal.
type timeoutEvent struct{}
type eofEvent struct{}

// Event is either *regexp.Regexp, Timeout, or EOF. It is compared by
// identity (==), the same way condoor/fsm.py's events.index(event) does
// for compiled pattern objects.
type Event interface{}

// Timeout and EOF are the two non-pattern events every FSM table may
// reference.
var (
	Timeout Event = timeoutEvent{}
	EOF     Event = eofEvent{}
)

// Controller is the minimal session surface an Engine needs: send data,
// wait for one of a set of events, and read what was captured.
type Controller interface {
	Send(s string) error
	SendLine(s string) error
	// Expect blocks until one of events matches, timeout elapses, or the
	// session ends. It returns the index into events of whichever
	// occurred; Timeout/EOF sentinels present in events are returned the
	// same way an ordinary pattern match would be.
	Expect(events []Event, timeout time.Duration, searchWindow int) (int, error)
	Before() string
	After() string
	Disconnect()
	// SpawnSession (re)spawns the session's child process with command,
	// used by protocol adapters that need to respawn mid-connect (the
	// ssh protocol/major-version fallback).
	SpawnSession(command string) error
}

// Device is the subset of condoor.Device the engine and shared actions
// need. Every driver and protocol adapter in the system is handed a
// Device that satisfies this interface, so fsm is the one place the
// contract is defined.
type Device interface {
	Hostname() string
	Ctrl() Controller
	// UpdateDriver re-evaluates which platform driver governs the
	// device based on a freshly observed prompt.
	UpdateDriver(prompt string)
	UpdateConfigMode()
	UpdateHostname()
	// PreviousPrompts returns the compiled prompt patterns of every hop
	// before this device in its chain, used by wait_for_string to
	// detect an unexpected jump back to an earlier hop.
	PreviousPrompts() []Event
	SetConnected(bool)
	SetLastError(string)
	EmitMessage(message string)
}

// Context is passed to every Action invoked during Run. It mirrors
// condoor/fsm.py's FSM.Context inner class.
type Context struct {
	Name     string
	Device   Device
	Ctrl     Controller
	Event    int
	State    int
	Finished bool
	Msg      string
	Pattern  Event
}

// ActionFunc performs a side effect for a matched transition. Returning
// false stops the FSM and fails Run; true continues to the transition's
// next state.
type ActionFunc func(ctx *Context) bool

// Action is the tagged variant of an FSM transition's side effect: a
// callback (Func), a raised error (Raise), or neither (the zero value,
// meaning "move on, no side effect").
type Action struct {
	Func  ActionFunc
	Raise error
}

// Do wraps fn as an Action.
func Do(fn ActionFunc) Action { return Action{Func: fn} }

// RaiseErr wraps err as an Action that aborts the FSM by returning err.
func RaiseErr(err error) Action { return Action{Raise: err} }

// Row is one transition: from any state in States, upon Event, run
// Action and move to Next, adjusting the expect timeout to Timeout (a
// zero Timeout leaves the current timeout unchanged, matching the
// original's "0 means no change" convention).
type Row struct {
	Event   Event
	States  []int
	Next    int
	Action  Action
	Timeout time.Duration
}

type compiledRow struct {
	next    int
	action  Action
	timeout time.Duration
}

// Engine runs a compiled transition table against a Device's controller.
type Engine struct {
	name           string
	device         Device
	ctrl           Controller
	events         []Event
	timeout        time.Duration
	searchWindow   int
	initPattern    Event
	maxTransitions int
	table          map[[2]int]compiledRow
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithInitPattern seeds the first iteration with an already-known event
// instead of calling Expect, matching the "init_pattern" parameter used
// when a protocol adapter hands off a pattern it already matched.
func WithInitPattern(p Event) Option { return func(e *Engine) { e.initPattern = p } }

// WithSearchWindow sets the expect search window size (-1 is unbounded).
func WithSearchWindow(n int) Option { return func(e *Engine) { e.searchWindow = n } }

// WithMaxTransitions overrides the default 20-transition loop guard.
func WithMaxTransitions(n int) Option { return func(e *Engine) { e.maxTransitions = n } }

// New builds an Engine. Compilation is deterministic: the same events
// and rows always produce the same transition table, which is what
// lets the same FSM table be reused safely across connection attempts.
func New(name string, device Device, events []Event, rows []Row, timeout time.Duration, opts ...Option) *Engine {
	e := &Engine{
		name:           name,
		device:         device,
		ctrl:           device.Ctrl(),
		events:         events,
		timeout:        timeout,
		searchWindow:   -1,
		maxTransitions: 20,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.table = compile(events, rows)
	return e
}

func compile(events []Event, rows []Row) map[[2]int]compiledRow {
	table := make(map[[2]int]compiledRow, len(rows))
	for _, row := range rows {
		idx := indexOf(events, row.Event)
		if idx < 0 {
			continue // transition for an event not in this FSM's table; skip, logged at Run time via absence
		}
		for _, state := range row.States {
			table[[2]int{idx, state}] = compiledRow{next: row.Next, action: row.Action, timeout: row.Timeout}
		}
	}
	return table
}

func indexOf(events []Event, target Event) int {
	for i, e := range events {
		if e == target {
			return i
		}
	}
	return -1
}

// Run drives the engine to completion. It returns true if the FSM
// reached state -1, false if an action declined to continue or the
// transition budget was exhausted. A connection-ending EOF is always
// reported as an error, never as a plain false.
func (e *Engine) Run() (bool, error) {
	ctx := &Context{Name: e.name, Device: e.device, Ctrl: e.ctrl, State: 0}
	timeout := e.timeout
	logger := Logger.With(zap.String("fsm", e.name))
	logger.Debug("start")

	for transitions := 0; transitions < e.maxTransitions; transitions++ {
		var (
			idx int
			err error
		)
		if e.initPattern != nil {
			idx = indexOf(e.events, e.initPattern)
			e.initPattern = nil
			if idx < 0 {
				logger.Error("init pattern not present in event table")
				continue
			}
		} else {
			idx, err = e.ctrl.Expect(e.events, timeout, e.searchWindow)
		}

		if err != nil {
			return false, cerrors.NewConnectionError("Session closed unexpectedly", e.device.Hostname())
		}

		ctx.Event = idx
		ctx.Pattern = e.events[idx]
		key := [2]int{idx, ctx.State}

		row, ok := e.table[key]
		if !ok {
			logger.Debug("unknown transition", zap.Int("event", idx), zap.Int("state", ctx.State))
			continue
		}

		logger.Debug("transition", zap.Int("event", idx), zap.Int("state", ctx.State))

		switch {
		case row.action.Raise != nil:
			return false, row.action.Raise
		case row.action.Func != nil:
			if !row.action.Func(ctx) {
				logger.Error("action declined", zap.String("msg", ctx.Msg))
				return false, nil
			}
		}

		if row.timeout != 0 {
			timeout = row.timeout
		}
		ctx.State = row.next

		if ctx.Finished || row.next == -1 {
			logger.Debug("stop", zap.Int("event", idx), zap.Int("state", ctx.State))
			return true, nil
		}
	}

	logger.Error("looped past max transitions")
	return false, fmt.Errorf("fsm %s: exceeded max transitions", e.name)
}
