// Package speech arbitrates the shared text-to-speech output channel across
// agents.
package speech

import "sync"

// Entry is one agent waiting for the speaking slot.
type Entry struct {
	// AgentID identifies the waiting agent.
	AgentID string
	// Text is the payload to vocalize once the agent is promoted.
	Text string
}

// StartFunc is invoked each time an agent is promoted into the speaking slot.
type StartFunc func(Entry)

// Queue serializes access to a single audio output channel. At most one agent
// holds the speaking slot at a time; the rest wait in FIFO order with explicit
// promotion to the front. The queue never decides when speaking ends; Finish
// must arrive from the playback side.
type Queue struct {
	// entries holds the waiting agents in promotion order.
	entries []Entry
	// current is the agent ID holding the speaking slot, "" when free.
	current string
	// onStart fires on promotion, outside the lock.
	onStart StartFunc
	// mu protects entries and current.
	mu sync.Mutex
}

// NewQueue creates an empty Queue. onStart may be nil.
func NewQueue(onStart StartFunc) *Queue {
	return &Queue{onStart: onStart}
}

// Enqueue appends the agent to the tail unless it is already queued or
// currently speaking, then promotes if the slot is free. Idempotent.
func (q *Queue) Enqueue(id, text string) {
	q.mu.Lock()
	if q.current == id || q.indexOf(id) >= 0 {
		q.mu.Unlock()
		return
	}
	q.entries = append(q.entries, Entry{AgentID: id, Text: text})
	q.mu.Unlock()

	q.promote()
}

// Promote moves the agent to the head of the queue, inserting it if absent,
// and promotes immediately when the slot is free. A queued entry keeps its
// text; text is only used when the agent was not queued yet. No-op if the
// agent is already speaking.
func (q *Queue) Promote(id, text string) {
	q.mu.Lock()
	if q.current == id {
		q.mu.Unlock()
		return
	}
	entry := Entry{AgentID: id, Text: text}
	if i := q.indexOf(id); i >= 0 {
		entry = q.entries[i]
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
	}
	q.entries = append([]Entry{entry}, q.entries...)
	q.mu.Unlock()

	q.promote()
}

// Finish clears the speaking slot unconditionally and promotes the next
// queued agent. Safe to call repeatedly and when nothing is speaking.
func (q *Queue) Finish() {
	q.mu.Lock()
	q.current = ""
	q.mu.Unlock()

	q.promote()
}

// Remove drops the agent from the queue and, if it holds the speaking slot,
// frees the slot. The freed slot stays empty until the next Finish or
// Enqueue.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(id); i >= 0 {
		q.entries = append(q.entries[:i], q.entries[i+1:]...)
	}
	if q.current == id {
		q.current = ""
	}
}

// UpdateText replaces the pending text of a queued agent. Returns false when
// the agent is not waiting in the queue (unknown or already speaking).
func (q *Queue) UpdateText(id, text string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(id); i >= 0 {
		q.entries[i].Text = text
		return true
	}
	return false
}

// Current returns the agent ID holding the speaking slot, or "" when free.
func (q *Queue) Current() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Queued returns the waiting agent IDs in promotion order.
func (q *Queue) Queued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, len(q.entries))
	for i, e := range q.entries {
		ids[i] = e.AgentID
	}
	return ids
}

// Reset clears the queue and the speaking slot.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.current = ""
}

// promote pops the head into a free speaking slot and fires onStart. This is
// the only place the slot is ever set. The callback runs outside the lock so
// it may call back into the queue.
func (q *Queue) promote() {
	q.mu.Lock()
	if q.current != "" || len(q.entries) == 0 {
		q.mu.Unlock()
		return
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	q.current = entry.AgentID
	onStart := q.onStart
	q.mu.Unlock()

	if onStart != nil {
		onStart(entry)
	}
}

// indexOf returns the queue position of id, or -1. Caller holds mu.
func (q *Queue) indexOf(id string) int {
	for i, e := range q.entries {
		if e.AgentID == id {
			return i
		}
	}
	return -1
}
