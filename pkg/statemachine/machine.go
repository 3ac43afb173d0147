package statemachine

import (
	"fmt"
	"sync"
)

// Guard decides whether a declared transition may proceed.
type Guard[S, E comparable] func(from S, event E) bool

// Hook observes a completed transition. Hooks run after the state changes,
// outside the machine lock, in registration order.
type Hook[S, E comparable] func(from, to S, event E)

type transition[S, E comparable] struct {
	to    S
	guard Guard[S, E]
}

type key[S, E comparable] struct {
	from  S
	event E
}

// Machine is a table-driven state machine. All methods are safe for concurrent use.
type Machine[S, E comparable] struct {
	initial     S
	current     S
	transitions map[key[S, E]]transition[S, E]
	hooks       []Hook[S, E]
	mu          sync.RWMutex
}

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithTransition declares from --event--> to. At most one transition may exist
// per (from, event) pair.
func WithTransition[S, E comparable](from, to S, event E) Option[S, E] {
	return WithGuardedTransition(from, to, event, nil)
}

// WithGuardedTransition declares a transition that only fires when guard returns true.
func WithGuardedTransition[S, E comparable](from, to S, event E, guard Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		k := key[S, E]{from: from, event: event}
		if _, exists := m.transitions[k]; exists {
			return fmt.Errorf("%w: %v on %v", ErrDuplicateTransition, from, event)
		}
		m.transitions[k] = transition[S, E]{to: to, guard: guard}
		return nil
	}
}

// WithHook registers a transition observer.
func WithHook[S, E comparable](h Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
		return nil
	}
}

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[key[S, E]]transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a bad transition table.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in any of the given states.
func (m *Machine[S, E]) Is(states ...S) bool {
	cur := m.Current()
	for _, s := range states {
		if s == cur {
			return true
		}
	}
	return false
}

// Fire applies event to the current state and returns the resulting state.
func (m *Machine[S, E]) Fire(event E) (S, error) {
	m.mu.Lock()
	from := m.current
	t, ok := m.transitions[key[S, E]{from: from, event: event}]
	if !ok {
		m.mu.Unlock()
		return from, &ErrNoTransition{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	if t.guard != nil && !t.guard(from, event) {
		m.mu.Unlock()
		return from, &ErrRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	m.current = t.to
	hooks := m.hooks
	m.mu.Unlock()

	for _, h := range hooks {
		h(from, t.to, event)
	}
	return t.to, nil
}

// CanFire reports whether event has a declared transition from the current state.
func (m *Machine[S, E]) CanFire(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transitions[key[S, E]{from: m.current, event: event}]
	return ok && (t.guard == nil || t.guard(m.current, event))
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
