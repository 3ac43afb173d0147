package provider_test

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/realtime"
)

// fakeRemote is an in-memory REST collaborator.
type fakeRemote struct {
	mu          sync.Mutex
	records     []notifications.Notification
	listErr     error
	mutationErr error
	listCalls   int
	listBlock   chan struct{}
}

func (r *fakeRemote) set(records ...notifications.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = slices.Clone(records)
}

func (r *fakeRemote) failList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

func (r *fakeRemote) failMutations(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutationErr = err
}

// blockList makes the next List wait for its context. The returned channel
// closes once that call is waiting.
func (r *fakeRemote) blockList() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listBlock = make(chan struct{})
	return r.listBlock
}

func (r *fakeRemote) lists() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

func (r *fakeRemote) List(ctx context.Context, opts notifications.ListOptions) ([]notifications.Notification, error) {
	r.mu.Lock()
	if block := r.listBlock; block != nil {
		r.listBlock = nil
		r.listCalls++
		r.mu.Unlock()
		close(block)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]notifications.Notification, 0, len(r.records))
	for _, n := range r.records {
		if !opts.UnreadOnly || !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRemote) UnreadCount(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.records {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeRemote) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutationErr != nil {
		return r.mutationErr
	}
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Read = true
		}
	}
	return nil
}

func (r *fakeRemote) MarkAllRead(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutationErr != nil {
		return r.mutationErr
	}
	for i := range r.records {
		r.records[i].Read = true
	}
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutationErr != nil {
		return r.mutationErr
	}
	r.records = slices.DeleteFunc(r.records, func(n notifications.Notification) bool { return n.ID == id })
	return nil
}

// pushDialer accepts every dial and exposes the resulting connections.
type pushDialer struct {
	mu    sync.Mutex
	addrs []string
	conns chan *pushConn
}

func newPushDialer() *pushDialer {
	return &pushDialer{conns: make(chan *pushConn, 8)}
}

func (d *pushDialer) Dial(_ context.Context, addr string) (realtime.Conn, error) {
	d.mu.Lock()
	d.addrs = append(d.addrs, addr)
	d.mu.Unlock()

	c := &pushConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
	d.conns <- c
	return c, nil
}

func (d *pushDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.addrs)
}

type pushConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *pushConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.frames:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pushConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *pushConn) send(frame string) {
	c.frames <- []byte(frame)
}
