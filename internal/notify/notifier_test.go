package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnouncer struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeAnnouncer) Announce(ctx context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, collection)
	return nil
}

func (f *fakeAnnouncer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestNotifierPublishesReloadedCollection(t *testing.T) {
	var items atomic.Value
	items.Store([]string{"b1"})
	hub := NewHub()
	n := NewNotifier(hub, map[string]Loader{
		"bookings": func(ctx context.Context) (any, error) { return items.Load(), nil },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	sub := hub.Subscribe("bookings")
	defer sub.Close()

	require.Eventually(t, func() bool {
		s, ok := hub.Latest("bookings")
		return ok && len(s.Items.([]string)) == 1
	}, time.Second, 5*time.Millisecond)

	items.Store([]string{"b2", "b1"})
	n.Changed("bookings")

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-sub.C():
			if len(snap.Items.([]string)) == 2 {
				assert.Equal(t, []string{"b2", "b1"}, snap.Items)
				return
			}
		case <-deadline:
			t.Fatal("no snapshot after change")
		}
	}
}

func TestChangedNeverBlocksAndCoalesces(t *testing.T) {
	var loads int32
	release := make(chan struct{})
	hub := NewHub()
	n := NewNotifier(hub, map[string]Loader{
		"users": func(ctx context.Context) (any, error) {
			atomic.AddInt32(&loads, 1)
			<-release
			return nil, nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.Changed("users")
		}
		n.Changed("unknown")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Changed blocked while a reload was in flight")
	}
	close(release)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&loads) >= 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&loads), int32(2))
}

func TestLoaderFailureKeepsLastSnapshot(t *testing.T) {
	var fail atomic.Bool
	hub := NewHub()
	n := NewNotifier(hub, map[string]Loader{
		"discounts": func(ctx context.Context) (any, error) {
			if fail.Load() {
				return nil, errors.New("store down")
			}
			return "ok", nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)
	require.Eventually(t, func() bool { _, ok := hub.Latest("discounts"); return ok }, time.Second, 5*time.Millisecond)

	fail.Store(true)
	n.Refresh("discounts")
	time.Sleep(50 * time.Millisecond)
	snap, ok := hub.Latest("discounts")
	require.True(t, ok)
	assert.Equal(t, "ok", snap.Items)
}

func TestChangedAnnouncesThroughRelay(t *testing.T) {
	relay := &fakeAnnouncer{}
	n := NewNotifier(NewHub(), map[string]Loader{
		"bookings": func(ctx context.Context) (any, error) { return nil, nil },
	})
	n.Relay = relay

	n.Changed("bookings")
	n.Refresh("bookings")
	assert.Eventually(t, func() bool { return relay.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRelayIgnoresOwnAnnouncements(t *testing.T) {
	r := &RedisRelay{origin: "me"}
	own, err := encodeChange("me", "users")
	require.NoError(t, err)
	other, err := encodeChange("them", "users")
	require.NoError(t, err)

	_, remote := r.decode(own)
	assert.False(t, remote)
	c, remote := r.decode(other)
	assert.True(t, remote)
	assert.Equal(t, "users", c)
	_, remote = r.decode("{not json")
	assert.False(t, remote)
}
