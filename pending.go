package slackdispatch

import (
	"sync"
	"time"
)

// pending is one outstanding dialog continuation. Entries are compared by
// pointer so a failed open can withdraw its own entry without touching a
// newer one stored under the same callback ID.
type pending struct {
	fn      SubmissionFunc
	created time.Time
}

// pendingTable maps dialog callback IDs to their continuations. Every
// operation holds mu for its whole read-modify-write, which is what makes
// take one-shot under concurrent submissions.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pending
	ttl     time.Duration
	now     func() time.Time
}

func newPendingTable(ttl time.Duration, now func() time.Time) *pendingTable {
	return &pendingTable{
		entries: make(map[string]*pending),
		ttl:     ttl,
		now:     now,
	}
}

// put stores fn under id, replacing any existing entry.
func (t *pendingTable) put(id string, fn SubmissionFunc) *pending {
	p := &pending{fn: fn, created: t.now()}

	t.mu.Lock()
	t.entries[id] = p
	t.mu.Unlock()

	return p
}

// take removes and returns the continuation for id. An expired entry is
// removed and reported as absent.
func (t *pendingTable) take(id string) (SubmissionFunc, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	delete(t.entries, id)

	if t.expired(p, t.now()) {
		return nil, false
	}
	return p.fn, true
}

// withdraw removes the entry for id only if it is still p.
func (t *pendingTable) withdraw(id string, p *pending) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entries[id] != p {
		return false
	}
	delete(t.entries, id)
	return true
}

// sweep removes every expired entry and returns their callback IDs.
func (t *pendingTable) sweep() []string {
	if t.ttl <= 0 {
		return nil
	}

	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []string
	for id, p := range t.entries {
		if t.expired(p, now) {
			delete(t.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *pendingTable) expired(p *pending, now time.Time) bool {
	return t.ttl > 0 && now.Sub(p.created) >= t.ttl
}
