package playback

import (
	"sync"
	"testing"
)

type fakeDecoder struct {
	closed bool
}

func (f *fakeDecoder) Decode(buf []float32) (int, error) { return 0, nil }
func (f *fakeDecoder) Channels() uint32                  { return 1 }
func (f *fakeDecoder) SampleRate() uint32                { return 48000 }
func (f *fakeDecoder) Close() error {
	f.closed = true
	return nil
}

func TestCompletionCell_SingleAssignment(t *testing.T) {
	c := newCompletionCell()
	c.set(true)
	c.set(false) // must be ignored: single-assignment

	if got := c.wait(); got != true {
		t.Errorf("wait() = %v, want true (first write wins)", got)
	}
}

func TestCompletionCell_MultiReader(t *testing.T) {
	c := newCompletionCell()

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = c.wait()
		}(i)
	}

	c.set(true)
	wg.Wait()

	for i, r := range results {
		if !r {
			t.Errorf("reader %d saw %v, want true", i, r)
		}
	}
}

func TestCompletionCell_DoneIsNonBlocking(t *testing.T) {
	c := newCompletionCell()
	if c.done() {
		t.Error("done() = true before any write")
	}
	c.set(false)
	if !c.done() {
		t.Error("done() = false after a write")
	}
}

func TestRequest_CancelIsIdempotent(t *testing.T) {
	req := newRequest()
	dec := &fakeDecoder{}
	req.decoder = dec

	req.cancel(false)
	req.cancel(true) // must be a no-op: first write wins

	if !dec.closed {
		t.Error("cancel() did not close the decoder")
	}
	if req.completion.wait() != false {
		t.Error("second cancel() overwrote the completion result")
	}
}

func TestHandle_InvalidByDefault(t *testing.T) {
	var h Handle
	if h.IsValid() {
		t.Error("zero Handle reports IsValid() = true")
	}
	if h.Wait() != false {
		t.Error("zero Handle.Wait() should return false")
	}
	h.Cancel() // must not panic
}

func TestHandle_CancelOnCompletedIsNoop(t *testing.T) {
	req := newRequest()
	req.completion.set(true)
	h := Handle{req: req}

	h.Cancel()

	if req.completion.wait() != true {
		t.Error("Cancel() on an already-completed request overwrote the result")
	}
}
