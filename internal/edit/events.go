package edit

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/face"
)

// EventKind classifies a submission result.
type EventKind int

const (
	EventAccepted EventKind = iota
	EventFailed
	EventRejected
)

func (k EventKind) String() string {
	switch k {
	case EventAccepted:
		return "accepted"
	case EventFailed:
		return "failed"
	case EventRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event is the fan-out copy of a submission result for observers such as
// the revision list, the reasoning panel and the archive.
type Event struct {
	Kind        EventKind
	Instruction string
	Face        face.ID
	Outcome     Outcome // set for EventAccepted
	Err         error   // set for EventFailed and EventRejected
	At          time.Time
}

type bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	closed bool
	log    *zap.Logger
}

func newBus(log *zap.Logger) *bus {
	return &bus{subs: make(map[int]chan Event), log: log}
}

func (b *bus) subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, max(buffer, 1))
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// publish never blocks; a subscriber that fell behind loses the event.
func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Warn("event subscriber full, dropping event",
				zap.Int("subscriber", id),
				zap.Stringer("kind", ev.Kind),
			)
		}
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
