package notify

import (
	"context"
	"sync"
	"time"

	"github.com/abatilo/tock/internal/reminder"
)

// Dedup wraps a sink and drops a notification when the same tag was already
// delivered for the same reminder instant. A task whose reminder is moved gets
// a new instant and is delivered again.
type Dedup struct {
	reminder.Sink

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewDedup(inner reminder.Sink) *Dedup {
	return &Dedup{Sink: inner, sent: make(map[string]time.Time)}
}

func (d *Dedup) Dispatch(ctx context.Context, n reminder.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if at, ok := d.sent[n.Tag]; ok && at.Equal(n.At) {
		return nil
	}
	if err := d.Sink.Dispatch(ctx, n); err != nil {
		return err
	}
	d.sent[n.Tag] = n.At
	return nil
}

// Prune forgets deliveries whose reminder instant is before the given time.
func (d *Dedup) Prune(before time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for tag, at := range d.sent {
		if at.Before(before) {
			delete(d.sent, tag)
		}
	}
}

func (d *Dedup) tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}
