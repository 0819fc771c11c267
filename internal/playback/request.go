package playback

import "sync"

// completionCell is a single-writer, multi-reader, one-shot boolean: the
// playback completion promise described for PlaybackRequest. Closing a
// channel on write gives every waiting reader the same value, satisfying
// the "copyable handle, multiple waiters" requirement without a
// broadcast condition variable.
type completionCell struct {
	once   sync.Once
	ch     chan struct{}
	result bool
}

func newCompletionCell() *completionCell {
	return &completionCell{ch: make(chan struct{})}
}

func (c *completionCell) set(v bool) {
	c.once.Do(func() {
		c.result = v
		close(c.ch)
	})
}

func (c *completionCell) wait() bool {
	<-c.ch
	return c.result
}

func (c *completionCell) done() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Request is one submitted audio item: an owned copy of the encoded
// bytes, an optional decoder, the mixer handle it was registered under,
// and the single-assignment completion cell. Every mutation of decoder
// state and of the done flag happens under mu.
type Request struct {
	mu sync.Mutex

	data    []byte
	decoder Decoder
	device  *Device
	handle  uint64

	done       bool
	completion *completionCell
}

func newRequest() *Request {
	return &Request{completion: newCompletionCell()}
}

// cancel tears the request down exactly once: stops it from being
// mixed, closes its decoder, and writes the completion result. Calling
// cancel on an already-done request is a no-op, which is what makes a
// racing end-of-stream callback and an explicit Cancel() safe to
// interleave in any order.
func (r *Request) cancel(success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	if r.device != nil {
		r.device.removeSound(r.handle)
	}
	if r.decoder != nil {
		_ = r.decoder.Close()
		r.decoder = nil
	}
	r.completion.set(success)
	r.done = true
}

// Handle is the value callers receive from Submit: a copyable view onto
// one request's completion. A zero Handle is invalid.
type Handle struct {
	req *Request
}

// IsValid reports whether submission reached a live, registered request.
func (h Handle) IsValid() bool { return h.req != nil }

// Wait blocks until the request terminates and returns true for a
// natural end, false for cancellation or setup failure.
func (h Handle) Wait() bool {
	if h.req == nil {
		return false
	}
	return h.req.completion.wait()
}

// Cancel peeks at the completion cell with zero timeout; if the request
// is still running it is cancelled with success=false. Cancelling a
// completed or invalid handle is a no-op.
func (h Handle) Cancel() {
	if h.req == nil || h.req.completion.done() {
		return
	}
	h.req.cancel(false)
}
