package realtime

import "github.com/dmitrymomot/garagedesk/pkg/statemachine"

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected  State = "DISCONNECTED"
	StateConnecting    State = "CONNECTING"
	StateConnected     State = "CONNECTED"
	StateReconnectWait State = "RECONNECT_WAIT"
)

func (s State) String() string { return string(s) }

type event string

const (
	eventConnect    event = "connect"
	eventOpened     event = "opened"
	eventDialFailed event = "dial_failed"
	eventLost       event = "lost"
	eventRetry      event = "retry"
	eventGiveUp     event = "give_up"
	eventDisconnect event = "disconnect"
)

type machine = statemachine.Machine[State, event]

func newMachine(hook statemachine.Hook[State, event]) *machine {
	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransition(StateDisconnected, StateConnecting, eventConnect),
		statemachine.WithTransition(StateConnecting, StateConnected, eventOpened),
		statemachine.WithTransition(StateConnecting, StateReconnectWait, eventDialFailed),
		statemachine.WithTransition(StateConnecting, StateDisconnected, eventGiveUp),
		statemachine.WithTransition(StateConnected, StateReconnectWait, eventLost),
		statemachine.WithTransition(StateReconnectWait, StateConnecting, eventRetry),
		statemachine.WithTransition(StateConnecting, StateDisconnected, eventDisconnect),
		statemachine.WithTransition(StateConnected, StateDisconnected, eventDisconnect),
		statemachine.WithTransition(StateReconnectWait, StateDisconnected, eventDisconnect),
		statemachine.WithHook(hook),
	)
}
