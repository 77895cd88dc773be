package audit

import (
	"sync"

	"github.com/gridforge/gridforge-backend/models"
)

// EventBroadcaster fans audit entries out to live subscribers, e.g. a
// project activity feed. Implementations must not block the caller.
type EventBroadcaster interface {
	Broadcast(event models.WorkflowEvent)
}

type NoopBroadcaster struct{}

func (NoopBroadcaster) Broadcast(models.WorkflowEvent) {}

// ChannelBroadcaster delivers events to per-subscriber buffered channels.
// Events are dropped for subscribers whose buffer is full, the database
// trail stays complete either way.
type ChannelBroadcaster struct {
	mu          sync.Mutex
	subscribers map[int]chan models.WorkflowEvent
	nextId      int
	bufferSize  int
}

func NewChannelBroadcaster(bufferSize int) *ChannelBroadcaster {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &ChannelBroadcaster{
		subscribers: make(map[int]chan models.WorkflowEvent),
		bufferSize:  bufferSize,
	}
}

func (b *ChannelBroadcaster) Subscribe() (<-chan models.WorkflowEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextId
	b.nextId++
	ch := make(chan models.WorkflowEvent, b.bufferSize)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *ChannelBroadcaster) Broadcast(event models.WorkflowEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
