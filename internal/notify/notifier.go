package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Loader reads the full collection, newest first.
type Loader func(ctx context.Context) (any, error)

// Announcer tells other instances that a collection changed.
type Announcer interface {
	Announce(ctx context.Context, collection string) error
}

// Notifier turns change signals into fresh hub snapshots. Changed only sets a
// pending flag, so bursts of writes collapse into one reload per collection.
type Notifier struct {
	hub     *Hub
	loaders map[string]Loader
	signals map[string]chan struct{}
	Relay   Announcer
	Timeout time.Duration
	Now     func() time.Time

	mu       sync.Mutex
	versions map[string]uint64
}

func NewNotifier(hub *Hub, loaders map[string]Loader) *Notifier {
	n := &Notifier{
		hub:      hub,
		loaders:  loaders,
		signals:  make(map[string]chan struct{}, len(loaders)),
		Timeout:  5 * time.Second,
		versions: map[string]uint64{},
	}
	for c := range loaders {
		n.signals[c] = make(chan struct{}, 1)
	}
	return n
}

func (n *Notifier) Hub() *Hub { return n.hub }

// Changed schedules a reload of collection here and, through the relay, on other instances.
func (n *Notifier) Changed(collection string) {
	n.Refresh(collection)
	if n.Relay == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.Timeout)
		defer cancel()
		if err := n.Relay.Announce(ctx, collection); err != nil {
			log.Warn().Err(err).Str("collection", collection).Msg("change announce failed")
		}
	}()
}

// Refresh schedules a local reload only.
func (n *Notifier) Refresh(collection string) {
	sig, ok := n.signals[collection]
	if !ok {
		log.Debug().Str("collection", collection).Msg("change signal for unknown collection")
		return
	}
	select {
	case sig <- struct{}{}:
	default:
	}
}

// Run loads every collection once and then reloads on signals until ctx ends.
func (n *Notifier) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for collection, load := range n.loaders {
		wg.Add(1)
		go func(collection string, load Loader) {
			defer wg.Done()
			n.refreshLoop(ctx, collection, load)
		}(collection, load)
	}
	wg.Wait()
}

func (n *Notifier) refreshLoop(ctx context.Context, collection string, load Loader) {
	n.reload(ctx, collection, load)
	sig := n.signals[collection]
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			n.reload(ctx, collection, load)
		}
	}
}

func (n *Notifier) reload(ctx context.Context, collection string, load Loader) {
	version := n.nextVersion(collection)
	lctx, cancel := context.WithTimeout(ctx, n.Timeout)
	defer cancel()
	items, err := load(lctx)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("snapshot load failed")
		return
	}
	n.hub.Publish(Snapshot{Collection: collection, Version: version, Items: items, At: n.now()})
}

func (n *Notifier) nextVersion(collection string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.versions[collection]++
	return n.versions[collection]
}

func (n *Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now().UTC()
}
