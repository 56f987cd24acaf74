package scheduler

import (
	"sync"

	"RSITracker/internal/model"
)

// Board holds the latest reading per symbol. The scheduler's consumer
// goroutine is its only writer; presentation consumers read snapshots or
// subscribe to updates.
type Board struct {
	mu       sync.RWMutex
	readings map[string]model.IndicatorReading
	subs     map[int]chan model.IndicatorReading
	nextID   int

	// OnDrop is called when an update is dropped for a slow subscriber.
	OnDrop func()
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{
		readings: make(map[string]model.IndicatorReading),
		subs:     make(map[int]chan model.IndicatorReading),
	}
}

// Get returns the latest reading for symbol.
func (b *Board) Get(symbol string) (model.IndicatorReading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.readings[symbol]
	return r, ok
}

// Snapshot returns readings in the given order. Symbols without a reading
// yet are reported as pending.
func (b *Board) Snapshot(order []string) []model.IndicatorReading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.IndicatorReading, 0, len(order))
	for _, s := range order {
		if r, ok := b.readings[s]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, model.IndicatorReading{Symbol: s, Status: model.StatusPending})
	}
	return out
}

// Put stores r as the latest reading and fans it out to subscribers.
// Sends never block; the lock is held so cancel cannot close a channel
// mid-send.
func (b *Board) Put(r model.IndicatorReading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readings[r.Symbol] = r
	for _, ch := range b.subs {
		select {
		case ch <- r:
		default:
			if b.OnDrop != nil {
				b.OnDrop()
			}
		}
	}
}

// Remove forgets the reading for symbol.
func (b *Board) Remove(symbol string) {
	b.mu.Lock()
	delete(b.readings, symbol)
	b.mu.Unlock()
}

// Subscribe returns a channel receiving every update and a cancel func that
// closes it. Updates are dropped when the channel buffer is full.
func (b *Board) Subscribe(buffer int) (<-chan model.IndicatorReading, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan model.IndicatorReading, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}
