package engine

import "sync"

// lockTable hands out one mutex per application id. Entries are reference
// counted and removed when the last holder releases, so the table does not
// grow with the number of applications ever seen. No operation acquires two
// entries at once, so cross-application deadlock cannot occur.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the application's critical section is held and
// returns the release function.
func (t *lockTable) acquire(applicationID string) func() {
	t.mu.Lock()
	entry, ok := t.entries[applicationID]
	if !ok {
		entry = &lockEntry{}
		t.entries[applicationID] = entry
	}
	entry.refs++
	t.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		t.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(t.entries, applicationID)
		}
		t.mu.Unlock()
	}
}
