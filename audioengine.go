// Package audioengine is the facade: the stable API a host application
// embeds to get asynchronous playback of in-memory encoded audio blobs
// and capture from the default input device, per §4.7.
//
// The facade is the only importable library package; every other engine
// concern lives under internal/, and the CLI lives in cmd/. It composes one shared malgo context with a
// playback.Engine and a capture.Engine, and owns nothing else — it adds
// no behaviour of its own beyond wiring, matching the teacher's pattern
// of a thin cmd-facing type over heavier internal packages.
package audioengine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/subsonant/audioengine/internal/capture"
	"github.com/subsonant/audioengine/internal/pcm"
	"github.com/subsonant/audioengine/internal/playback"
)

// Format re-exports the five supported PCM sample layouts so callers
// never need to import internal/pcm directly.
type Format = pcm.Format

const (
	Float32   = pcm.Float32
	Signed16  = pcm.Signed16
	Signed24  = pcm.Signed24
	Signed32  = pcm.Signed32
	Unsigned8 = pcm.Unsigned8
)

// ParseFormat maps the config/CLI spelling of a format onto a Format.
func ParseFormat(s string) (Format, error) { return pcm.ParseFormat(s) }

// Handle is the opaque playback handle returned by Submit. It carries a
// shared, read-only view of the request's completion cell.
type Handle = playback.Handle

// ErrNotInitialized is returned by operations that require a prior
// successful Init.
var ErrNotInitialized = errors.New("audioengine: not initialized")

// Engine is the facade over the playback and recording engines. The
// zero value is not usable; construct one with New. Engine is move-only
// in spirit: copying it after Init would duplicate ownership of the
// underlying malgo context, so callers should pass *Engine.
type Engine struct {
	mu sync.Mutex

	ctx *malgo.AllocatedContext

	playback *playback.Engine
	capture  *capture.Engine

	// decoderFactory is supplied at construction so a host can plug in
	// a richer codec than the built-in WAV reader (§6's external
	// decoder collaborator).
	decoderFactory playback.DecoderFactory
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithDecoderFactory overrides the default RIFF/WAVE decoder with a
// host-supplied one, per §6's decoder collaborator contract.
func WithDecoderFactory(f playback.DecoderFactory) Option {
	return func(e *Engine) { e.decoderFactory = f }
}

// New constructs an unstarted Engine. Call InitPlayback/Start to bring
// up the two independent device directions; neither is required by the
// other.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ensureContext() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audioengine: init context: %w", err)
	}
	e.ctx = ctx
	return nil
}

// InitPlayback brings the playback device up. It is idempotent on
// success, per §4.3's state machine.
func (e *Engine) InitPlayback() bool {
	if err := e.ensureContext(); err != nil {
		return false
	}

	e.mu.Lock()
	if e.playback == nil {
		e.playback = playback.NewEngine(e.ctx, e.decoderFactory)
	}
	eng := e.playback
	e.mu.Unlock()

	return eng.Init()
}

// UninitPlayback cancels every in-flight submission, drains their
// completions, and tears the playback device down. Safe to call when
// not initialised.
func (e *Engine) UninitPlayback() {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng != nil {
		eng.Uninit()
	}
}

// Submit copies data, decodes it, and starts playback asynchronously.
// The returned Handle is invalid if the engine isn't initialised or if
// decode/sound setup fails; see §7's per-request error contract.
func (e *Engine) Submit(data []byte) Handle {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng == nil {
		return Handle{}
	}
	return eng.Submit(data)
}

// SetVolumePercent sets master playback volume as a percent of unity;
// negatives clamp to 0, there is no upper bound (§4.3).
func (e *Engine) SetVolumePercent(p float64) {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng != nil {
		eng.SetVolumePercent(p)
	}
}

// GetVolumePercent returns the current master volume as a percent.
func (e *Engine) GetVolumePercent() float64 {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng == nil {
		return 0
	}
	return eng.GetVolumePercent()
}

// CancelAll cancels and removes every live playback request.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng != nil {
		eng.CancelAll()
	}
}

// ActivePlaybackCount reports how many playback requests are currently
// registered; used by hosts and by the registry-lifecycle tests in §8.
func (e *Engine) ActivePlaybackCount() int {
	e.mu.Lock()
	eng := e.playback
	e.mu.Unlock()
	if eng == nil {
		return 0
	}
	return eng.ActiveCount()
}

// StartRecording configures and starts the capture device, per §4.4.
func (e *Engine) StartRecording(sampleRate uint32, channels uint8, format Format) error {
	if err := e.ensureContext(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.capture == nil {
		e.capture = capture.NewEngine(e.ctx)
	}
	eng := e.capture
	e.mu.Unlock()

	return eng.Start(sampleRate, channels, format)
}

// StopRecording tears the capture device down; channels/format remain
// queryable, sample rate resets to 0 (§4.4).
func (e *Engine) StopRecording() error {
	eng := e.captureEngine()
	if eng == nil {
		return ErrNotInitialized
	}
	return eng.Stop()
}

// IsRecording reports whether the capture device is currently active.
func (e *Engine) IsRecording() bool {
	eng := e.captureEngine()
	return eng != nil && eng.IsRecording()
}

// SampleRate, Channels, Format mirror the capture engine's getters.
func (e *Engine) SampleRate() uint32 {
	if eng := e.captureEngine(); eng != nil {
		return eng.SampleRate()
	}
	return 0
}

func (e *Engine) Channels() uint8 {
	if eng := e.captureEngine(); eng != nil {
		return eng.Channels()
	}
	return 0
}

func (e *Engine) RecordingFormat() Format {
	if eng := e.captureEngine(); eng != nil {
		return eng.Format()
	}
	return 0
}

// SetThresholdPercent/GetThresholdPercent mirror the capture engine's
// silence-gate threshold accessors, in the public ×100 percent form.
func (e *Engine) SetThresholdPercent(p float64) {
	if eng := e.captureEngine(); eng != nil {
		eng.SetThresholdPercent(p)
	}
}

func (e *Engine) GetThresholdPercent() float64 {
	if eng := e.captureEngine(); eng != nil {
		return eng.GetThresholdPercent()
	}
	return 0
}

// SetGainPercent/GetGainPercent mirror the capture engine's gain
// accessors, in the public ×100 percent form.
func (e *Engine) SetGainPercent(p float64) {
	if eng := e.captureEngine(); eng != nil {
		eng.SetGainPercent(p)
	}
}

func (e *Engine) GetGainPercent() float64 {
	if eng := e.captureEngine(); eng != nil {
		return eng.GetGainPercent()
	}
	return 0
}

// Clear empties the capture buffer without stopping the device.
func (e *Engine) Clear() {
	if eng := e.captureEngine(); eng != nil {
		eng.Clear()
	}
}

// SizeUnread returns the wire-encoded size of everything buffered.
func (e *Engine) SizeUnread() int {
	if eng := e.captureEngine(); eng != nil {
		return eng.SizeUnread()
	}
	return 0
}

// GetUnread drains up to maxBytes of wire-encoded capture frames.
func (e *Engine) GetUnread(maxBytes int) []byte {
	if eng := e.captureEngine(); eng != nil {
		return eng.Unread(maxBytes)
	}
	return nil
}

// Decode turns a wire-encoded byte stream (as produced by GetUnread)
// back into the concatenated raw PCM stream, per §6's wire format.
func (e *Engine) Decode(data []byte) ([]byte, error) {
	return capture.DecodeChunks(data)
}

func (e *Engine) captureEngine() *capture.Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capture
}

// DeviceInfo is a minimal, library-neutral view of one enumerated
// device, mirroring the teacher's internal/audio.Capture.ListDevices
// but narrowed to name + index (§2's "supplemented features").
type DeviceInfo struct {
	Index int
	Name  string
}

// ListPlaybackDevices enumerates playback-capable devices. Requires a
// context, which ensureContext lazily creates if one of the two
// directions hasn't been started yet.
func (e *Engine) ListPlaybackDevices() ([]DeviceInfo, error) {
	if err := e.ensureContext(); err != nil {
		return nil, err
	}
	return e.listDevices(malgo.Playback)
}

// ListCaptureDevices enumerates capture-capable devices.
func (e *Engine) ListCaptureDevices() ([]DeviceInfo, error) {
	if err := e.ensureContext(); err != nil {
		return nil, err
	}
	return e.listDevices(malgo.Capture)
}

func (e *Engine) listDevices(kind malgo.DeviceType) ([]DeviceInfo, error) {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx == nil {
		return nil, ErrNotInitialized
	}

	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("audioengine: enumerate devices: %w", err)
	}

	out := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		out[i] = DeviceInfo{Index: i, Name: info.Name()}
	}
	return out, nil
}

// Close tears down both engine directions and releases the shared
// context. Safe to call on a partially-initialised Engine.
func (e *Engine) Close() error {
	e.UninitPlayback()
	_ = e.StopRecording()

	e.mu.Lock()
	ctx := e.ctx
	e.ctx = nil
	e.mu.Unlock()

	if ctx != nil {
		_ = ctx.Uninit()
		ctx.Free()
	}
	return nil
}
