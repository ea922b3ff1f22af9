// SPDX-License-Identifier: EPL-2.0

package library

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidItem = errors.New("library item needs an id and an archive locator")

// Item is one packaged sample in the user's library.
type Item struct {
	ID             string
	ArchiveLocator string
	UpdatedAt      time.Time
}

// NewItem returns an item with a fresh random id.
func NewItem(archive string) Item {
	return Item{ID: uuid.NewString(), ArchiveLocator: archive, UpdatedAt: time.Now().UTC()}
}

func (i Item) validate() error {
	if i.ID == "" || i.ArchiveLocator == "" {
		return ErrInvalidItem
	}
	return nil
}

// Repository persists library items. Upsert replaces an item with the same
// id in place. ObserveAll delivers the full list once on subscription and
// again after every change until ctx is done, then closes the channel.
// A slow reader only ever sees the latest list.
type Repository interface {
	Upsert(ctx context.Context, item Item) error
	ObserveAll(ctx context.Context) <-chan []Item
}

// hub fans snapshots out to subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[chan []Item]struct{}
}

func (h *hub) subscribe(ctx context.Context, initial []Item) <-chan []Item {
	ch := make(chan []Item, 1)
	ch <- slices.Clone(initial)

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan []Item]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, ch)
		close(ch)
	}()

	return ch
}

func (h *hub) publish(items []Item) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		// Replace an unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- slices.Clone(items):
		default:
		}
	}
}

// Memory is an in-process Repository that keeps insertion order.
type Memory struct {
	mu    sync.Mutex
	items []Item
	hub   hub
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Upsert(_ context.Context, item Item) error {
	if err := item.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.IndexFunc(m.items, func(it Item) bool { return it.ID == item.ID }); i >= 0 {
		m.items[i] = item
	} else {
		m.items = append(m.items, item)
	}
	m.hub.publish(m.items)

	return nil
}

func (m *Memory) ObserveAll(ctx context.Context) <-chan []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hub.subscribe(ctx, m.items)
}

// All returns a snapshot of the items.
func (m *Memory) All() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.items)
}
