package realtime_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dmitrymomot/garagedesk/pkg/realtime"
)

var errRefused = errors.New("connection refused")

// fakeDialer hands out scripted results: a nil error yields a fakeConn.
type fakeDialer struct {
	mu      sync.Mutex
	addrs   []string
	results []error
	conns   chan *fakeConn
	// fallback is used once results run out
	fallback error
}

func newFakeDialer(results ...error) *fakeDialer {
	return &fakeDialer{results: results, conns: make(chan *fakeConn, 16), fallback: errRefused}
}

func (d *fakeDialer) Dial(ctx context.Context, addr string) (realtime.Conn, error) {
	d.mu.Lock()
	d.addrs = append(d.addrs, addr)
	err := d.fallback
	if len(d.results) > 0 {
		err = d.results[0]
		d.results = d.results[1:]
	}
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	c := &fakeConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.addrs)
}

func (d *fakeDialer) lastAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.addrs) == 0 {
		return ""
	}
	return d.addrs[len(d.addrs)-1]
}

type fakeConn struct {
	frames    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-c.frames:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-c.closed:
		return nil, io.ErrClosedPipe
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(frame string) {
	c.frames <- []byte(frame)
}

// drop simulates the server going away.
func (c *fakeConn) drop() {
	close(c.frames)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
