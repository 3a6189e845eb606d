package agent

import (
	"sync"

	"github.com/voxagent/voxagent/internal/schema"
)

// turnQueue holds the pending messages of each session. A session with an
// entry in pending has a live worker draining it in arrival order.
type turnQueue struct {
	mu      sync.Mutex
	pending map[string][]schema.InboundMessage
}

func newTurnQueue() *turnQueue {
	return &turnQueue{pending: make(map[string][]schema.InboundMessage)}
}

// push queues msg under key and reports whether key needs a new worker.
func (q *turnQueue) push(key string, msg schema.InboundMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, active := q.pending[key]
	q.pending[key] = append(q.pending[key], msg)
	return !active
}

// pop returns the next message for key. When none is left the worker for
// key is retired and ok is false.
func (q *turnQueue) pop(key string) (msg schema.InboundMessage, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.pending[key]
	if len(list) == 0 {
		delete(q.pending, key)
		return schema.InboundMessage{}, false
	}
	q.pending[key] = list[1:]
	return list[0], true
}
