// Package statemachine provides a small, concurrency-safe finite state
// machine keyed by comparable state and event types.
//
// Transitions are declared up front as a table; Fire looks up the transition
// for the current state and event, runs optional guards and hooks, then moves
// the machine. Unknown combinations return *ErrNoTransition so callers can
// tell programming errors apart from rejected transitions.
//
//	m := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Running, Start),
//	    statemachine.WithTransition(Running, Idle, Stop),
//	    statemachine.WithHook(func(from, to State, evt Event) {
//	        log.Printf("%v -> %v on %v", from, to, evt)
//	    }),
//	)
//	_ = m.Fire(Start)
package statemachine
