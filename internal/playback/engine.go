// Package playback implements asynchronous decoded-audio playback: a
// registry of in-flight requests mixed together onto one shared output
// device, with per-submission cancellation and completion reporting.
package playback

import (
	"math"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Engine is the Uninitialised/Initialised state machine that wraps
// device lifecycle, volume, and dispatches submissions to the registry.
type Engine struct {
	ctx            *malgo.AllocatedContext
	decoderFactory DecoderFactory

	initialized atomic.Bool
	registry    *Registry
	device      *Device

	volumeBits atomic.Uint64
}

// NewEngine builds an engine against a shared malgo context and the
// decoder factory used for every submission. factory defaults to
// DefaultDecoderFactory (WAV) when nil.
func NewEngine(ctx *malgo.AllocatedContext, factory DecoderFactory) *Engine {
	if factory == nil {
		factory = DefaultDecoderFactory
	}
	e := &Engine{ctx: ctx, decoderFactory: factory}
	e.volumeBits.Store(math.Float64bits(1.0))
	return e
}

// Init transitions Uninitialised -> Initialised. It is idempotent on
// success: calling it again while already initialised is a no-op that
// reports success.
func (e *Engine) Init() bool {
	if !e.initialized.CompareAndSwap(false, true) {
		return true
	}

	device, err := newDevice(e.ctx, e.getVolume)
	if err != nil {
		e.initialized.Store(false)
		return false
	}

	e.registry = NewRegistry()
	e.device = device
	return true
}

// Uninit cancels and drains every live request before tearing the
// device down; calling it while not initialised is a no-op.
func (e *Engine) Uninit() {
	if !e.initialized.CompareAndSwap(true, false) {
		return
	}
	e.registry.cancelAndRemoveAll()
	e.device.close()
	e.registry = nil
	e.device = nil
}

// Submit decodes data and hands it to the mixer, returning a handle
// carrying the request's completion view. Every failure path cancels
// and removes the newly created request before returning an invalid
// handle, per the per-request error contract.
func (e *Engine) Submit(data []byte) Handle {
	if !e.initialized.Load() {
		return Handle{}
	}

	req, id := e.registry.create()

	owned := make([]byte, len(data))
	copy(owned, data)
	req.data = owned

	dec, err := e.decoderFactory(owned)
	if err != nil {
		req.cancel(false)
		e.registry.remove(id)
		return Handle{}
	}

	req.mu.Lock()
	req.decoder = dec
	req.device = e.device
	req.handle = id
	req.mu.Unlock()

	s := newSound(dec, func() {
		req.cancel(true)
		e.registry.remove(id)
	})

	// Hold the request's own mutex across registration so a pathologically
	// short clip can't fire its end-of-stream teardown before this call
	// returns (the teardown path also locks req.mu, in cancel).
	req.mu.Lock()
	e.device.addSound(id, s)
	req.mu.Unlock()

	return Handle{req: req}
}

// SetVolumePercent clamps p to [0,∞) (negatives clamp to 0, no upper
// bound) and stores it as the unscaled fraction passed to the mixer.
func (e *Engine) SetVolumePercent(p float64) {
	if p < 0 {
		p = 0
	}
	e.volumeBits.Store(math.Float64bits(p / 100))
}

// GetVolumePercent returns the current volume in its public ×100 form.
func (e *Engine) GetVolumePercent() float64 {
	return e.getVolume() * 100
}

func (e *Engine) getVolume() float64 {
	return math.Float64frombits(e.volumeBits.Load())
}

// CancelAll cancels and removes every currently live request.
func (e *Engine) CancelAll() {
	if !e.initialized.Load() {
		return
	}
	e.registry.cancelAndRemoveAll()
}

// ActiveCount reports how many requests are currently registered. Used
// by the registry-lifecycle invariant checks and by the facade.
func (e *Engine) ActiveCount() int {
	if !e.initialized.Load() {
		return 0
	}
	return e.registry.size()
}
