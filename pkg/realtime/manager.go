package realtime

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/cache"
	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
)

// Manager maintains at most one push-channel connection at a time.
// All methods are safe for concurrent use.
type Manager struct {
	cfg      config
	baseURL  string
	fsm      *machine
	messages chan Message

	// lifecycle serializes Connect, Disconnect and Close; mu guards session state.
	lifecycle sync.Mutex
	mu        sync.Mutex
	userID    string
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool

	permission sync.Once
}

// New creates a disconnected Manager for the push channel at baseURL.
func New(baseURL string, opts ...Option) *Manager {
	cfg := config{
		dialer:      WebsocketDialer{},
		backoff:     DefaultBackoff(),
		maxAttempts: 5,
		dialTimeout: 10 * time.Second,
		dedupWindow: 256,
		bufferSize:  64,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{
		cfg:      cfg,
		baseURL:  baseURL,
		messages: make(chan Message, cfg.bufferSize),
	}
	m.fsm = newMachine(func(from, to State, _ event) {
		m.cfg.logger.Debug("connection state changed",
			logger.Component("realtime"),
			slog.String("from", string(from)),
			logger.State(string(to)),
		)
		for _, h := range m.cfg.stateHooks {
			h(to)
		}
	})
	return m
}

// Address returns the push-channel URL for userID.
func (m *Manager) Address(userID string) (string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/notifications"
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *Manager) State() State {
	return m.fsm.Current()
}

// Live reports whether the channel is currently CONNECTED.
func (m *Manager) Live() bool {
	return m.fsm.Is(StateConnected)
}

// Message is one decoded frame tagged with the user whose session received it.
type Message struct {
	UserID string
	notifications.Inbound
}

// Messages delivers decoded frames in arrival order. The channel is closed by Close.
func (m *Manager) Messages() <-chan Message {
	return m.messages
}

// Connect opens the channel for userID. It is a no-op while already
// CONNECTING or CONNECTED for the same user; otherwise any existing
// connection is torn down first and the attempt counter starts afresh.
// Failures are handled internally and never returned.
func (m *Manager) Connect(userID string) {
	if userID == "" {
		m.Disconnect()
		return
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.closed || (m.userID == userID && m.fsm.Is(StateConnecting, StateConnected)) {
		m.mu.Unlock()
		return
	}
	done := m.stopLocked()
	m.mu.Unlock()

	if done != nil {
		<-done
	}

	addr, err := m.Address(userID)
	if err != nil {
		m.cfg.logger.Error("invalid push channel address",
			logger.Component("realtime"),
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.userID = userID
	m.cancel = cancel
	m.done = make(chan struct{})
	m.fireLocked(gen, eventConnect)
	s := &session{
		m:      m,
		gen:    gen,
		userID: userID,
		addr:   addr,
		done:   m.done,
	}
	if m.cfg.dedupWindow > 0 {
		s.seen = cache.NewLRU[string, struct{}](m.cfg.dedupWindow)
	}
	m.mu.Unlock()

	go s.run(ctx)
}

// Disconnect cancels any pending reconnect, closes the active connection and
// settles in DISCONNECTED. It is idempotent and returns once the connection
// goroutine has exited.
func (m *Manager) Disconnect() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	done := m.stopLocked()
	m.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Close disconnects and closes the Messages channel. The Manager cannot be
// reused afterwards.
func (m *Manager) Close() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	done := m.stopLocked()
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	close(m.messages)
	return nil
}

// stopLocked detaches the current session and returns its done channel.
func (m *Manager) stopLocked() chan struct{} {
	if m.cancel == nil {
		return nil
	}
	m.gen++
	m.cancel()
	m.cancel = nil
	if !m.fsm.Is(StateDisconnected) {
		m.fire(eventDisconnect)
	}
	done := m.done
	m.done = nil
	m.userID = ""
	return done
}

// fireLocked applies ev if gen is still the current session.
func (m *Manager) fireLocked(gen uint64, ev event) bool {
	if gen != m.gen {
		return false
	}
	return m.fire(ev)
}

func (m *Manager) fire(ev event) bool {
	if _, err := m.fsm.Fire(ev); err != nil {
		m.cfg.logger.Error("invalid connection state transition",
			logger.Component("realtime"),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (m *Manager) transition(gen uint64, ev event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fireLocked(gen, ev)
}

// session is one Connect call's worth of dialing and reading.
type session struct {
	m      *Manager
	gen    uint64
	userID string
	addr   string
	done   chan struct{}
	seen   *cache.LRU[string, struct{}]
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)

	log := s.m.cfg.logger.With(logger.Component("realtime"), logger.UserID(s.userID))
	failures, retry := 0, 0

	for {
		conn, err := s.dial(ctx)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			failures++
			if failures >= s.m.cfg.maxAttempts {
				log.Error("push channel unavailable, giving up",
					logger.Attempt(failures),
					logger.Error(err),
				)
				s.m.transition(s.gen, eventGiveUp)
				return
			}
			log.Warn("push channel dial failed", logger.Attempt(failures), logger.Error(err))
			if !s.m.transition(s.gen, eventDialFailed) {
				return
			}
		} else {
			failures, retry = 0, 0
			if !s.m.transition(s.gen, eventOpened) {
				conn.Close()
				return
			}
			if s.m.cfg.onPermission != nil {
				s.m.permission.Do(s.m.cfg.onPermission)
			}
			log.Info("push channel connected")

			err = s.receive(ctx, conn, log)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			log.Warn("push channel lost", logger.Error(err))
			if !s.m.transition(s.gen, eventLost) {
				return
			}
		}

		retry++
		delay := s.m.cfg.backoff.Delay(retry)
		log.Debug("reconnect scheduled", logger.Attempt(retry), logger.Duration(delay))
		if !sleep(ctx, delay) {
			return
		}
		if !s.m.transition(s.gen, eventRetry) {
			return
		}
	}
}

func (s *session) dial(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, s.m.cfg.dialTimeout)
	defer cancel()
	return s.m.cfg.dialer.Dial(ctx, s.addr)
}

// receive reads frames until the connection fails or ctx ends.
func (s *session) receive(ctx context.Context, conn Conn, log *slog.Logger) error {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		in, err := notifications.ParseMessage(data, s.m.cfg.now())
		if err != nil {
			log.Warn("dropping malformed push message", logger.Error(err))
			continue
		}
		if !s.accept(in, log) {
			continue
		}

		select {
		case s.m.messages <- Message{UserID: s.userID, Inbound: in}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *session) accept(in notifications.Inbound, log *slog.Logger) bool {
	if in.Record == nil {
		return true
	}
	if uid := in.Record.UserID; uid != "" && uid != s.userID {
		log.Warn("dropping push message for another user",
			logger.NotificationID(in.Record.ID),
			slog.String("message_user_id", uid),
		)
		return false
	}
	if s.seen == nil || in.Synthesized {
		return true
	}
	key := in.Record.ID + "@" + strconv.FormatInt(in.Record.CreatedAt.UnixNano(), 10)
	if _, dup := s.seen.GetOrPut(key, func() struct{} { return struct{}{} }); dup {
		log.Debug("dropping redelivered push message", logger.NotificationID(in.Record.ID))
		return false
	}
	return true
}

// sleep waits for d or ctx, reporting whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
