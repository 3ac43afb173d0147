package realtime_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/realtime"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type stateLog struct {
	mu     sync.Mutex
	states []realtime.State
}

func (l *stateLog) record(s realtime.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) all() []realtime.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]realtime.State(nil), l.states...)
}

func newManager(t *testing.T, d *fakeDialer, opts ...realtime.Option) (*realtime.Manager, *stateLog) {
	t.Helper()
	states := &stateLog{}
	base := []realtime.Option{
		realtime.WithDialer(d),
		realtime.WithBackoff(time.Millisecond, 4*time.Millisecond),
		realtime.WithLogger(logger.Discard()),
		realtime.WithStateHook(states.record),
	}
	m := realtime.New("ws://push.example.com/", append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m, states
}

func nextConn(t *testing.T, d *fakeDialer) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("no connection dialed")
		return nil
	}
}

func nextMessage(t *testing.T, m *realtime.Manager) realtime.Message {
	t.Helper()
	select {
	case in := <-m.Messages():
		return in
	case <-time.After(waitFor):
		t.Fatal("no message delivered")
		return realtime.Message{}
	}
}

func TestManager_Address(t *testing.T) {
	t.Parallel()

	m := realtime.New("wss://api.example.com/v1/")
	addr, err := m.Address("user 42")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/v1/notifications?userId=user+42", addr)
}

func TestManager_ConnectDeliversMessages(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m, _ := newManager(t, d)

	m.Connect("u-1")
	conn := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)
	assert.Equal(t, "ws://push.example.com/notifications?userId=u-1", d.lastAddr())

	conn.send(`{"id":"n-1","type":"PAYMENT","title":"Payment received","message":"$120.00"}`)
	in := nextMessage(t, m)
	require.NotNil(t, in.Record)
	assert.Equal(t, "n-1", in.Record.ID)
	assert.Equal(t, "u-1", in.UserID)

	conn.send(`{"type":"UNREAD_COUNT","count":3}`)
	in = nextMessage(t, m)
	require.NotNil(t, in.UnreadCount)
	assert.Equal(t, 3, *in.UnreadCount)
}

func TestManager_DropsMalformedAndForeignMessages(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m, _ := newManager(t, d)
	m.Connect("u-1")
	conn := nextConn(t, d)

	conn.send(`{{{`)
	conn.send(`{"id":"late","title":"t","timestamp":"yesterday"}`)
	conn.send(`{"id":"x","title":"not yours","userId":"u-2"}`)
	conn.send(`{"id":"ok","title":"mine","userId":"u-1"}`)

	in := nextMessage(t, m)
	assert.Equal(t, "ok", in.Record.ID)
	assert.True(t, m.Live(), "malformed input must not affect the connection")
}

func TestManager_DedupWindow(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m, _ := newManager(t, d)
	m.Connect("u-1")
	conn := nextConn(t, d)

	frame := `{"id":"n-1","title":"t","timestamp":"2025-01-01T10:00:00Z"}`
	conn.send(frame)
	conn.send(frame)
	conn.send(`{"id":"n-1","title":"t","timestamp":"2025-01-01T11:00:00Z"}`)

	first := nextMessage(t, m)
	second := nextMessage(t, m)
	assert.Equal(t, "n-1", first.Record.ID)
	assert.True(t, second.Record.CreatedAt.After(first.Record.CreatedAt), "updated record must pass")

	select {
	case in := <-m.Messages():
		t.Fatalf("unexpected redelivery %+v", in)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestManager_ConnectIsNoopForSameUser(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m, _ := newManager(t, d)

	m.Connect("u-1")
	nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	m.Connect("u-1")
	m.Connect("u-1")
	assert.Equal(t, 1, d.attempts())
	assert.True(t, m.Live())
}

func TestManager_ConnectOtherUserReplacesConnection(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil, nil)
	m, _ := newManager(t, d)

	m.Connect("u-1")
	first := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	m.Connect("u-2")
	second := nextConn(t, d)

	assert.True(t, first.isClosed(), "previous socket must be closed before the new one opens")
	assert.False(t, second.isClosed())
	assert.Contains(t, d.lastAddr(), "userId=u-2")
	assert.Eventually(t, m.Live, waitFor, tick)
}

func TestManager_ReconnectsAfterLoss(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil, errRefused, nil)
	m, states := newManager(t, d)

	m.Connect("u-1")
	first := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	first.drop()
	second := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)
	assert.Equal(t, 3, d.attempts())

	second.send(`{"id":"after","title":"back online"}`)
	assert.Equal(t, "after", nextMessage(t, m).Record.ID)

	assert.Equal(t, []realtime.State{
		realtime.StateConnecting,
		realtime.StateConnected,
		realtime.StateReconnectWait,
		realtime.StateConnecting,
		realtime.StateReconnectWait,
		realtime.StateConnecting,
		realtime.StateConnected,
	}, states.all())
}

func TestManager_ReconnectBound(t *testing.T) {
	t.Parallel()

	d := newFakeDialer()
	m, _ := newManager(t, d, realtime.WithMaxAttempts(5))

	m.Connect("u-1")
	assert.Eventually(t, func() bool {
		return d.attempts() == 5 && m.State() == realtime.StateDisconnected
	}, waitFor, tick)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, d.attempts(), "no attempts after giving up")
	assert.Equal(t, realtime.StateDisconnected, m.State())

	// an explicit restart begins a fresh series
	m.Connect("u-1")
	assert.Eventually(t, func() bool {
		return d.attempts() == 10 && m.State() == realtime.StateDisconnected
	}, waitFor, tick)
}

func TestManager_AttemptCounterResetsOnConnect(t *testing.T) {
	t.Parallel()

	// 2 failures, success, loss, 2 more failures, success: never 3 in a row
	d := newFakeDialer(errRefused, errRefused, nil, errRefused, errRefused, nil)
	m, _ := newManager(t, d, realtime.WithMaxAttempts(3))

	m.Connect("u-1")
	first := nextConn(t, d)
	first.drop()
	nextConn(t, d)

	assert.Eventually(t, m.Live, waitFor, tick)
	assert.Equal(t, 6, d.attempts())
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	t.Parallel()

	d := newFakeDialer()
	m, _ := newManager(t, d, realtime.WithBackoff(time.Hour, time.Hour))

	m.Connect("u-1")
	assert.Eventually(t, func() bool { return m.State() == realtime.StateReconnectWait }, waitFor, tick)

	m.Disconnect()
	assert.Equal(t, realtime.StateDisconnected, m.State())
	assert.Equal(t, 1, d.attempts())

	m.Disconnect()
	assert.Equal(t, realtime.StateDisconnected, m.State())
}

func TestManager_DisconnectClosesSocket(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m, _ := newManager(t, d)
	m.Connect("u-1")
	conn := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	m.Disconnect()
	assert.True(t, conn.isClosed())
	assert.False(t, m.Live())
}

func TestManager_PermissionRequestedOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := newFakeDialer(nil, nil)
	m, _ := newManager(t, d, realtime.WithPermissionRequest(func() { calls.Add(1) }))

	m.Connect("u-1")
	first := nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	first.drop()
	nextConn(t, d)
	assert.Eventually(t, m.Live, waitFor, tick)

	assert.Equal(t, int32(1), calls.Load())
}

func TestManager_CloseClosesMessages(t *testing.T) {
	t.Parallel()

	d := newFakeDialer(nil)
	m := realtime.New("ws://localhost", realtime.WithDialer(d), realtime.WithLogger(logger.Discard()))
	m.Connect("u-1")
	nextConn(t, d)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, ok := <-m.Messages()
	assert.False(t, ok)

	m.Connect("u-1")
	assert.Equal(t, realtime.StateDisconnected, m.State())
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	d := newFakeDialer()
	m := realtime.NewFromConfig(realtime.Config{
		BaseURL:       "ws://cfg.example.com",
		ReconnectBase: time.Millisecond,
		ReconnectCap:  2 * time.Millisecond,
		MaxAttempts:   2,
	}, realtime.WithDialer(d), realtime.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = m.Close() })

	m.Connect("u-9")
	assert.Eventually(t, func() bool {
		return d.attempts() == 2 && m.State() == realtime.StateDisconnected
	}, waitFor, tick)
	assert.Equal(t, "ws://cfg.example.com/notifications?userId=u-9", d.lastAddr())
}
