package toast_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/toast"
)

func note(id string) notifications.Notification {
	return notifications.Notification{
		ID:        id,
		Type:      notifications.TypeAppointment,
		Title:     "Appointment " + id,
		CreatedAt: time.Now(),
	}
}

type changes struct {
	mu  sync.Mutex
	ids []string
}

func (c *changes) hook(n *notifications.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		c.ids = append(c.ids, "")
		return
	}
	c.ids = append(c.ids, n.ID)
}

func (c *changes) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

func TestPresenter(t *testing.T) {
	t.Parallel()

	t.Run("auto dismisses", func(t *testing.T) {
		t.Parallel()
		ch := &changes{}
		p := toast.New(toast.WithDuration(20*time.Millisecond), toast.WithChangeHook(ch.hook), toast.WithLogger(logger.Discard()))
		defer p.Close()

		p.Show(note("a"))
		cur, ok := p.Current()
		require.True(t, ok)
		assert.Equal(t, "a", cur.ID)

		assert.Eventually(t, func() bool {
			_, ok := p.Current()
			return !ok
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"a", ""}, ch.all())
	})

	t.Run("newest preempts and stale timer does not hide it", func(t *testing.T) {
		t.Parallel()
		p := toast.New(toast.WithDuration(60 * time.Millisecond))
		defer p.Close()

		p.Show(note("a"))
		time.Sleep(40 * time.Millisecond)
		p.Show(note("b"))

		// a's timer would have fired by now
		time.Sleep(35 * time.Millisecond)
		cur, ok := p.Current()
		require.True(t, ok)
		assert.Equal(t, "b", cur.ID)

		assert.Eventually(t, func() bool {
			_, ok := p.Current()
			return !ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("manual dismiss", func(t *testing.T) {
		t.Parallel()
		ch := &changes{}
		p := toast.New(toast.WithChangeHook(ch.hook))
		defer p.Close()

		p.Dismiss()
		p.Show(note("a"))
		p.Dismiss()
		p.Dismiss()

		_, ok := p.Current()
		assert.False(t, ok)
		assert.Equal(t, []string{"a", ""}, ch.all())
	})

	t.Run("dismiss by id", func(t *testing.T) {
		t.Parallel()
		p := toast.New()
		defer p.Close()

		p.Show(note("a"))
		p.DismissID("other")
		_, ok := p.Current()
		assert.True(t, ok)

		p.DismissID("a")
		_, ok = p.Current()
		assert.False(t, ok)
	})

	t.Run("closed presenter ignores shows", func(t *testing.T) {
		t.Parallel()
		p := toast.New()
		p.Show(note("a"))
		p.Close()

		p.Show(note("b"))
		_, ok := p.Current()
		assert.False(t, ok)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	p := toast.NewFromConfig(toast.Config{Duration: 10 * time.Millisecond})
	defer p.Close()

	p.Show(note("a"))
	assert.Eventually(t, func() bool {
		_, ok := p.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}
