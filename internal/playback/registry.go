package playback

import "sync"

// Registry owns every live Request behind stable uint64 handles. Using a
// map keyed by a monotonically increasing id (rather than an iterator
// into a list) keeps insert/remove O(1) and keeps other handles stable
// across removals, per the registry's design notes.
type Registry struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]*Request
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]*Request)}
}

// create appends a fresh, unstarted request and returns it along with
// the handle under which it is registered.
func (reg *Registry) create() (*Request, uint64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.next++
	id := reg.next
	req := newRequest()
	reg.entries[id] = req
	return req, id
}

// remove drops the request at handle. It is the caller's responsibility
// to call this at most once per request, after cancel/completion —
// enforced in practice by the done discipline inside Request.cancel.
func (reg *Registry) remove(handle uint64) {
	reg.mu.Lock()
	delete(reg.entries, handle)
	reg.mu.Unlock()
}

// size returns the number of currently registered requests.
func (reg *Registry) size() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.entries)
}

// cancelAndRemoveAll cancels every live request while holding the
// registry lock, then releases it before blocking on their completions.
// Releasing before the wait is what prevents a cycle with the
// end-of-stream teardown path, which acquires a request's own lock
// before ever touching the registry lock.
func (reg *Registry) cancelAndRemoveAll() {
	reg.mu.Lock()
	live := make([]*Request, 0, len(reg.entries))
	for _, req := range reg.entries {
		req.cancel(false)
		live = append(live, req)
	}
	reg.entries = make(map[uint64]*Request)
	reg.mu.Unlock()

	for _, req := range live {
		req.completion.wait()
	}
}
