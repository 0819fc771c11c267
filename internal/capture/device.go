// Package capture implements the recording side of the engine: a malgo
// capture device whose callback runs a gain -> silence-gate -> compress
// pipeline into a Buffer the host drains on its own schedule.
//
// This is a direct generalization of ColonelBlimp/cwdecoder's
// internal/audio/capture.go — same context/device lifecycle, same
// atomic running/closed flags — widened from "mono float32 at a fixed
// rate" to any of the five pcm.Format layouts plus the
// gain/threshold/compress pipeline. The callback copies every buffer it
// receives before processing it.
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/subsonant/audioengine/internal/pcm"
)

var (
	ErrAlreadyRunning = errors.New("capture: already recording")
	ErrNotRunning     = errors.New("capture: not recording")
)

func malgoFormat(f pcm.Format) malgo.FormatType {
	switch f {
	case pcm.Float32:
		return malgo.FormatF32
	case pcm.Signed16:
		return malgo.FormatS16
	case pcm.Signed24:
		return malgo.FormatS24
	case pcm.Signed32:
		return malgo.FormatS32
	case pcm.Unsigned8:
		return malgo.FormatU8
	default:
		return malgo.FormatUnknown
	}
}

// Engine owns the capture device and the frame buffer it feeds.
type Engine struct {
	ctx *malgo.AllocatedContext

	mu         sync.Mutex // guards device, sampleRate, channels, format
	device     *malgo.Device
	sampleRate uint32
	channels   uint8
	format     pcm.Format

	running atomic.Bool
	closed  atomic.Bool

	buffer *Buffer

	// thresholdBits/gainBits hold the unscaled [0,1]/[0,∞) fraction as
	// float64 bits behind an atomic, so the device callback never takes
	// a lock to read them.
	thresholdBits atomic.Uint64
	gainBits      atomic.Uint64
}

// NewEngine creates a recording engine. ctx is the shared malgo context
// obtained from the facade (capture and playback may share one context
// or use independent ones; the facade wires this).
func NewEngine(ctx *malgo.AllocatedContext) *Engine {
	e := &Engine{ctx: ctx, buffer: NewBuffer()}
	e.gainBits.Store(math.Float64bits(1.0))
	return e
}

// Buffer exposes the underlying capture buffer so the facade can drain
// it without the engine mediating every call.
func (e *Engine) Buffer() *Buffer { return e.buffer }

// Start configures and starts the capture device. It is idempotent on
// success: calling it while already running is a no-op that returns nil
// and leaves the running session's settings unchanged.
// Sample rate/channels/format are stored before the device starts,
// because the callback reads them via the engine back-reference (§4.4).
func (e *Engine) Start(sampleRate uint32, channels uint8, format pcm.Format) error {
	if !format.Valid() {
		return fmt.Errorf("capture: invalid format %v", format)
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	e.sampleRate = sampleRate
	e.channels = channels
	e.format = format
	e.mu.Unlock()

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         sampleRate,
		PeriodSizeInFrames: 512,
		Capture: malgo.SubConfig{
			Format:   malgoFormat(format),
			Channels: uint32(channels),
		},
	}

	device, err := malgo.InitDevice(e.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: e.onData,
	})
	if err != nil {
		e.running.Store(false)
		return fmt.Errorf("capture: init device: %w", err)
	}

	e.mu.Lock()
	e.device = device
	e.mu.Unlock()

	if err := device.Start(); err != nil {
		device.Uninit()
		e.mu.Lock()
		e.device = nil
		e.mu.Unlock()
		e.running.Store(false)
		return fmt.Errorf("capture: start device: %w", err)
	}

	return nil
}

// onData is the device callback. It must never allocate on failure
// paths or block on the registry (it doesn't touch the registry at
// all — that's a playback concept) and runs the gain -> silence-gate ->
// compress pipeline described in §4.4.
func (e *Engine) onData(_, inputSamples []byte, _ uint32) {
	if e.closed.Load() || len(inputSamples) == 0 {
		return
	}

	e.mu.Lock()
	format := e.format
	e.mu.Unlock()

	kernel := pcm.KernelFor(format)

	pcmBuf := make([]byte, len(inputSamples))
	copy(pcmBuf, inputSamples)

	if kernel != nil {
		gain := math.Float64frombits(e.gainBits.Load())
		pcmBuf = kernel.ApplyGain(pcmBuf, gain)

		threshold := math.Float64frombits(e.thresholdBits.Load())
		if kernel.IsSilence(pcmBuf, threshold) {
			return
		}
	}

	e.buffer.Push(pcmBuf)
}

// Stop tears down the device and clears the sample rate to 0; channels
// and format are left as-is so a subsequent query still reflects the
// last session, per §4.4.
func (e *Engine) Stop() error {
	if !e.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.device != nil {
		_ = e.device.Stop()
		e.device.Uninit()
		e.device = nil
	}
	e.sampleRate = 0
	return nil
}

// Close permanently stops the engine: it releases the device and makes
// the callback ignore any further input. The malgo context is not
// released here; it belongs to whoever passed it to NewEngine.
func (e *Engine) Close() error {
	e.closed.Store(true)
	_ = e.Stop()
	return nil
}

// IsRecording reports whether the device is currently active.
func (e *Engine) IsRecording() bool { return e.running.Load() }

// SampleRate, Channels, Format are the getters from §6's public surface.
func (e *Engine) SampleRate() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampleRate
}

func (e *Engine) Channels() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels
}

func (e *Engine) Format() pcm.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

// SetThresholdPercent clamps p to [0,100] and stores it internally as
// the unscaled p/100 fraction.
func (e *Engine) SetThresholdPercent(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	e.thresholdBits.Store(math.Float64bits(p / 100))
}

// GetThresholdPercent returns the threshold in its public ×100 form.
func (e *Engine) GetThresholdPercent() float64 {
	return math.Float64frombits(e.thresholdBits.Load()) * 100
}

// SetGainPercent clamps p to [0,∞) (no upper bound) and stores it
// internally as the unscaled p/100 fraction.
func (e *Engine) SetGainPercent(p float64) {
	if p < 0 {
		p = 0
	}
	e.gainBits.Store(math.Float64bits(p / 100))
}

// GetGainPercent returns the gain in its public ×100 form.
func (e *Engine) GetGainPercent() float64 {
	return math.Float64frombits(e.gainBits.Load()) * 100
}

// Clear empties the capture buffer without stopping the device.
func (e *Engine) Clear() { e.buffer.Clear() }

// SizeUnread returns the wire-encoded size of everything buffered.
func (e *Engine) SizeUnread() int { return e.buffer.SizeUnread() }

// Unread drains up to maxBytes of wire-encoded frames.
func (e *Engine) Unread(maxBytes int) []byte { return e.buffer.DrainUpTo(maxBytes) }
