package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/async"
	"github.com/dmitrymomot/garagedesk/pkg/broadcast"
	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/realtime"
	"github.com/dmitrymomot/garagedesk/pkg/toast"
)

// RemoteFactory builds the REST collaborator bound to userID.
type RemoteFactory func(userID string) notifications.Remote

// Provider owns the notification state of the active user session.
// All methods are safe for concurrent use.
type Provider struct {
	newRemote         RemoteFactory
	conn              *realtime.Manager
	toasts            *toast.Presenter
	snapshots         *broadcast.MemoryBroadcaster[Snapshot]
	logger            *slog.Logger
	reconcileInterval time.Duration

	// sessionMu serializes SetUser, Refresh and Close.
	sessionMu sync.Mutex

	mu          sync.RWMutex
	userID      string
	store       *notifications.Store
	remote      notifications.Remote
	sessionCtx  context.Context
	cancel      context.CancelFunc
	loading     bool
	loadErr     string
	mutationErr string
	closed      bool

	resyncing atomic.Bool
	dirty     chan struct{}
	quit      chan struct{}
	wg        sync.WaitGroup
}

// New creates a Provider with no active user. newRemote is called once per
// session; pushURL is the push-channel origin.
func New(newRemote RemoteFactory, pushURL string, opts ...Option) *Provider {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{
		newRemote:         newRemote,
		snapshots:         broadcast.NewMemoryBroadcaster[Snapshot](1, broadcast.WithConflation()),
		logger:            cfg.logger.With(logger.Component("provider")),
		reconcileInterval: cfg.reconcileInterval,
		dirty:             make(chan struct{}, 1),
		quit:              make(chan struct{}),
	}

	realtimeOpts := append([]realtime.Option{realtime.WithLogger(cfg.logger)}, cfg.realtimeOpts...)
	realtimeOpts = append(realtimeOpts, realtime.WithStateHook(func(realtime.State) { p.signal() }))
	p.conn = realtime.New(pushURL, realtimeOpts...)

	toastOpts := append([]toast.Option{toast.WithLogger(cfg.logger)}, cfg.toastOpts...)
	toastOpts = append(toastOpts, toast.WithChangeHook(func(*notifications.Notification) { p.signal() }))
	p.toasts = toast.New(toastOpts...)

	p.wg.Add(2)
	go p.pump()
	go p.publish()
	return p
}

// SetUser switches the session to userID. An empty id tears the session
// down. For a new user the store is seeded from the REST history first and
// the push channel is opened afterwards. The returned error is the seed
// failure, if any; the session stays active and Refresh can retry.
func (p *Provider) SetUser(ctx context.Context, userID string) error {
	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.userID == userID {
		p.mu.Unlock()
		return nil
	}
	p.teardownLocked()
	p.userID = userID
	if userID == "" {
		p.mu.Unlock()
		p.conn.Disconnect()
		p.toasts.Dismiss()
		p.signal()
		p.logger.Info("notification session ended")
		return nil
	}

	remote := p.newRemote(userID)
	store := notifications.NewStore(remote,
		notifications.WithLogger(p.logger.With(logger.UserID(userID))),
		notifications.WithChangeHook(p.signal),
	)
	sessionCtx, cancel := context.WithCancel(context.Background())
	p.store, p.remote = store, remote
	p.sessionCtx, p.cancel = sessionCtx, cancel
	p.loading = true
	p.mu.Unlock()

	p.signal()
	p.toasts.Dismiss()
	p.conn.Disconnect()

	loadCtx, stop := sessionBound(ctx, sessionCtx)
	err := p.load(loadCtx, store)
	stop()
	if sessionCtx.Err() != nil {
		return err
	}
	p.conn.Connect(userID)

	if p.reconcileInterval > 0 {
		p.wg.Add(1)
		go p.reconcile(sessionCtx, store, remote)
	}

	p.logger.Info("notification session started", logger.UserID(userID))
	return err
}

// Refresh refetches the history for the active session.
func (p *Provider) Refresh(ctx context.Context) error {
	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	store, sessionCtx := p.store, p.sessionCtx
	if store == nil {
		p.mu.Unlock()
		return ErrNoSession
	}
	p.loading = true
	p.mu.Unlock()
	p.signal()

	ctx, stop := sessionBound(ctx, sessionCtx)
	defer stop()
	return p.load(ctx, store)
}

// sessionBound derives a context from ctx that is also canceled when the
// session ends.
func sessionBound(ctx, session context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	release := context.AfterFunc(session, cancel)
	return ctx, func() {
		release()
		cancel()
	}
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	s := Snapshot{
		UserID:        p.userID,
		Loading:       p.loading,
		Error:         p.loadErr,
		MutationError: p.mutationErr,
	}
	store := p.store
	p.mu.RUnlock()

	s.State = p.conn.State()
	s.IsConnected = s.State == realtime.StateConnected
	if store != nil {
		s.Notifications = store.Snapshot()
		for _, n := range s.Notifications {
			if !n.Read {
				s.UnreadCount++
			}
		}
	}
	if t, ok := p.toasts.Current(); ok {
		s.Toast = &t
	}
	return s
}

// Subscribe returns a subscription that always holds the latest snapshot.
// It ends when ctx is canceled or the Provider closes.
func (p *Provider) Subscribe(ctx context.Context) broadcast.Subscriber[Snapshot] {
	sub := p.snapshots.Subscribe(ctx)
	p.signal()
	return sub
}

// MarkAsRead marks id read. On failure the change is rolled back and a
// *notifications.MutationError is returned.
func (p *Provider) MarkAsRead(ctx context.Context, id string) error {
	store, err := p.activeStore()
	if err != nil {
		return err
	}
	return p.settle(store.MarkRead(ctx, id))
}

// MarkAllAsRead marks every unread record read as one batch.
func (p *Provider) MarkAllAsRead(ctx context.Context) error {
	store, err := p.activeStore()
	if err != nil {
		return err
	}
	return p.settle(store.MarkAllRead(ctx))
}

// Delete removes id.
func (p *Provider) Delete(ctx context.Context, id string) error {
	store, err := p.activeStore()
	if err != nil {
		return err
	}
	return p.settle(store.Remove(ctx, id))
}

// MarkAsReadAsync is MarkAsRead returning a Future. The optimistic change is
// visible in Snapshot as soon as the call is scheduled.
func (p *Provider) MarkAsReadAsync(ctx context.Context, id string) *async.Future[struct{}] {
	return async.Run(ctx, func(ctx context.Context) error { return p.MarkAsRead(ctx, id) })
}

func (p *Provider) MarkAllAsReadAsync(ctx context.Context) *async.Future[struct{}] {
	return async.Run(ctx, p.MarkAllAsRead)
}

func (p *Provider) DeleteAsync(ctx context.Context, id string) *async.Future[struct{}] {
	return async.Run(ctx, func(ctx context.Context) error { return p.Delete(ctx, id) })
}

// DismissToast hides the current toast without touching its record.
func (p *Provider) DismissToast() {
	p.toasts.Dismiss()
}

// Close ends the session and releases every resource. In-flight mutations
// complete remotely but their results are discarded.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	// Unblocks a history fetch in SetUser or Refresh still holding sessionMu.
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.sessionMu.Lock()
	defer p.sessionMu.Unlock()

	p.mu.Lock()
	p.teardownLocked()
	p.mu.Unlock()

	err := p.conn.Close()
	p.toasts.Close()
	close(p.quit)
	p.wg.Wait()
	return errors.Join(err, p.snapshots.Close())
}

// Must be called with lock held.
func (p *Provider) teardownLocked() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.store != nil {
		p.store.Clear()
	}
	p.store, p.remote = nil, nil
	p.sessionCtx, p.cancel = nil, nil
	p.loading = false
	p.loadErr, p.mutationErr = "", ""
}

func (p *Provider) activeStore() (*notifications.Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.store == nil {
		return nil, ErrNoSession
	}
	return p.store, nil
}

// settle records the user-facing outcome of a mutation.
func (p *Provider) settle(err error) error {
	var msg string
	var mErr *notifications.MutationError
	if errors.As(err, &mErr) {
		msg = mErr.UserMessage()
	}

	p.mu.Lock()
	changed := p.mutationErr != msg
	p.mutationErr = msg
	p.mu.Unlock()

	if changed {
		p.signal()
	}
	return err
}

func (p *Provider) load(ctx context.Context, store *notifications.Store) error {
	err := store.Load(ctx)

	p.mu.Lock()
	if p.store == store {
		p.loading = false
		p.loadErr = ""
		if err != nil {
			p.loadErr = "Could not load notifications. Please try again."
		}
	}
	p.mu.Unlock()
	p.signal()

	if err != nil {
		p.logger.Warn("notification history fetch failed", logger.Error(err))
	}
	return err
}

// pump folds push messages into the active store.
func (p *Provider) pump() {
	defer p.wg.Done()
	for msg := range p.conn.Messages() {
		p.handle(msg)
	}
}

func (p *Provider) handle(msg realtime.Message) {
	p.mu.RLock()
	store, userID, ctx := p.store, p.userID, p.sessionCtx
	p.mu.RUnlock()

	if store == nil || msg.UserID != userID {
		return
	}

	if msg.Record != nil {
		res, err := store.Merge(*msg.Record)
		if err != nil {
			p.logger.Warn("push record rejected", logger.Error(err))
			return
		}
		if res == notifications.Inserted {
			p.toasts.Show(*msg.Record)
		}
		return
	}

	if msg.UnreadCount != nil && *msg.UnreadCount != store.UnreadCount() {
		p.logger.Debug("server unread count differs, resyncing",
			logger.Count(*msg.UnreadCount),
			slog.Int("local_count", store.UnreadCount()),
		)
		p.resync(ctx, store)
	}
}

// resync reseeds store in the background; concurrent requests collapse into one.
func (p *Provider) resync(ctx context.Context, store *notifications.Store) {
	if ctx == nil || !p.resyncing.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.resyncing.Store(false)
		if err := store.Load(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("notification resync failed", logger.Error(err))
		}
	}()
}

// reconcile periodically compares the server unread count with the derived one.
func (p *Provider) reconcile(ctx context.Context, store *notifications.Store, remote notifications.Remote) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := remote.UnreadCount(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Debug("unread count check failed", logger.Error(err))
				}
				continue
			}
			if count != store.UnreadCount() {
				p.resync(ctx, store)
			}
		}
	}
}

func (p *Provider) signal() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

// publish broadcasts a fresh snapshot after every batch of changes.
func (p *Provider) publish() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case <-p.dirty:
			if err := p.snapshots.Broadcast(context.Background(), broadcast.Message[Snapshot]{Data: p.Snapshot()}); err != nil {
				p.logger.Debug("snapshot broadcast failed", logger.Error(err))
			}
		}
	}
}
