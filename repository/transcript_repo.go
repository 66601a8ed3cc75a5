package repository

import (
	"sync"

	"chat-client/models"
)

type TranscriptRepository interface {
	Append(msg models.Message)
	All() []models.Message
	Len() int
}

// InMemoryTranscriptRepo is an append-only log of messages in delivery
// order. Entries are never reordered or removed; ordering is arrival order,
// not timestamp order.
type InMemoryTranscriptRepo struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func NewInMemoryTranscriptRepo() *InMemoryTranscriptRepo {
	return &InMemoryTranscriptRepo{}
}

func (r *InMemoryTranscriptRepo) Append(msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// All returns a snapshot copy; callers cannot mutate the log through it.
func (r *InMemoryTranscriptRepo) All() []models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *InMemoryTranscriptRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.msgs)
}
