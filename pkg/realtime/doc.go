// Package realtime owns the push-channel connection of one user session.
//
// A Manager dials `<base>/notifications?userId=<id>`, decodes every frame with
// notifications.ParseMessage and delivers the result on its Messages channel.
// Connection loss is hidden behind a small state machine:
//
//	DISCONNECTED -> CONNECTING -> CONNECTED -> RECONNECT_WAIT -> CONNECTING ...
//
// Reconnect delays grow as min(base*2^(n-1), cap). After a fixed number of
// consecutive failed dials the manager settles in DISCONNECTED and stays there
// until Connect is called again.
//
// Usage:
//
//	m := realtime.New("wss://api.example.com",
//		realtime.WithLogger(log),
//		realtime.WithStateHook(func(s realtime.State) { ... }),
//	)
//	defer m.Close()
//
//	m.Connect("user-42")
//	for in := range m.Messages() {
//		...
//	}
//
// Malformed frames are logged and dropped. Neither Connect nor Disconnect
// ever returns an error.
package realtime
