package web

import (
	"sync"
	"time"

	"github.com/example/omnidine/internal/checkout"
	"github.com/example/omnidine/internal/wizard"
)

// flows is the in-progress reservation and checkout state of one session.
// Handlers hold mu for the whole request so a session's steps never interleave.
type flows struct {
	mu       sync.Mutex
	wizard   *wizard.Wizard
	checkout *checkout.Flow
	lastUsed time.Time
}

type flowStore struct {
	mu  sync.Mutex
	m   map[string]*flows
	now func() time.Time
}

func newFlowStore(now func() time.Time) *flowStore {
	return &flowStore{m: map[string]*flows{}, now: now}
}

// acquire returns the session's flows locked. The caller must unlock.
func (fs *flowStore) acquire(sessionID string) *flows {
	fs.mu.Lock()
	f, ok := fs.m[sessionID]
	if !ok {
		f = &flows{}
		fs.m[sessionID] = f
	}
	f.lastUsed = fs.now()
	fs.mu.Unlock()

	f.mu.Lock()
	return f
}

func (fs *flowStore) discard(sessionID string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.m, sessionID)
}

func (fs *flowStore) sweep(before time.Time) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for id, f := range fs.m {
		if f.lastUsed.Before(before) {
			delete(fs.m, id)
			n++
		}
	}
	return n
}

func (fs *flowStore) len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.m)
}
