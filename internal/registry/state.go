package registry

import (
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	Disconnected State = iota
	Initializing
	Loading
	Ready
	Creating
	Decrypting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Initializing:
		return "initializing"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Creating:
		return "creating"
	case Decrypting:
		return "decrypting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether a user-triggered operation is in flight.
func (s State) Busy() bool {
	return s == Creating || s == Decrypting
}

type Event string

const (
	EventConnect     Event = "connect"
	EventInitialized Event = "initialized"
	EventInitFailed  Event = "init_failed"
	EventLoaded      Event = "loaded"
	EventLoadFailed  Event = "load_failed"
	EventReload      Event = "reload"
	EventCreate      Event = "create"
	EventDecrypt     Event = "decrypt"
	EventFinished    Event = "finished"
	EventDisconnect  Event = "disconnect"
)

var ErrInvalidTransition = errors.New("invalid state transition")

type transition struct {
	from  State
	event Event
}

var transitions = map[transition]State{
	{Disconnected, EventConnect}:    Initializing,
	{Initializing, EventInitialized}: Loading,
	// A failed init stays put; the user retries or disconnects.
	{Initializing, EventInitFailed}: Initializing,
	{Loading, EventLoaded}:          Ready,
	{Loading, EventLoadFailed}:      Ready,
	{Ready, EventReload}:            Loading,
	{Ready, EventCreate}:            Creating,
	{Ready, EventDecrypt}:           Decrypting,
	{Creating, EventFinished}:       Ready,
	{Decrypting, EventFinished}:     Ready,
}

// Machine replaces the loading, initializing, creating and decrypting flags
// with one state and guarded transitions.
type Machine struct {
	mu    sync.Mutex
	state State
}

func NewMachine() *Machine {
	return &Machine{state: Disconnected}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fire applies event and returns the new state. An event that is not valid in
// the current state leaves it unchanged and returns ErrInvalidTransition.
func (m *Machine) Fire(event Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event == EventDisconnect {
		if m.state == Disconnected {
			return m.state, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, m.state)
		}
		m.state = Disconnected
		return m.state, nil
	}

	next, ok := transitions[transition{m.state, event}]
	if !ok {
		return m.state, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, m.state)
	}
	m.state = next
	return next, nil
}

// Can reports whether event is valid in the current state.
func (m *Machine) Can(event Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event == EventDisconnect {
		return m.state != Disconnected
	}
	_, ok := transitions[transition{m.state, event}]
	return ok
}
