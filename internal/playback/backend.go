package playback

import (
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/subsonant/audioengine/internal/recovery"
)

// Decoder is the narrow contract a submitted audio blob must satisfy:
// produce normalized interleaved float32 PCM until exhausted. malgo
// itself (unlike some native audio libraries) exposes no decoder or
// mixing concept at all — only a raw Context/Device pair — so this
// interface and everything that consumes it below is original code,
// not a binding to a library feature.
type Decoder interface {
	// Decode fills buf with up to len(buf) interleaved float32 samples
	// and returns how many were written. A final non-zero read may be
	// returned alongside io.EOF.
	Decode(buf []float32) (int, error)
	Channels() uint32
	SampleRate() uint32
	Close() error
}

// DecoderFactory builds a Decoder over an owned copy of encoded bytes.
// The default, DefaultDecoderFactory, parses RIFF/WAVE (wavdecoder.go); a
// host embedding a richer codec supplies its own.
type DecoderFactory func(data []byte) (Decoder, error)

// sound binds one decoder to the shared device's mixer.
type sound struct {
	decoder Decoder
	onEnd   func()
}

func newSound(decoder Decoder, onEnd func()) *sound {
	return &sound{decoder: decoder, onEnd: onEnd}
}

const (
	mixSampleRate     = 48000
	mixChannels       = 2
	bytesPerMixSample = 4 // float32
)

// Device owns the single shared malgo playback device and mixes every
// currently active sound into its output buffer each callback. Output is
// fixed at 48kHz stereo float32: per the Non-goals (no resampling, no
// multi-device routing), decoders are expected to already produce
// matching PCM: mixing is pure addition, not format conversion.
type Device struct {
	malgoDevice *malgo.Device

	mu     sync.Mutex
	sounds map[uint64]*sound

	volume func() float64

	teardownPool *teardownWorkerPool

	mixBuf  []float32
	readBuf []float32
}

func newDevice(ctx *malgo.AllocatedContext, volume func() float64) (*Device, error) {
	d := &Device{
		sounds:       make(map[uint64]*sound),
		volume:       volume,
		teardownPool: newTeardownWorkerPool(4),
	}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Playback,
		SampleRate:         mixSampleRate,
		PeriodSizeInFrames: 512,
		Playback: malgo.SubConfig{
			Format:   malgo.FormatF32,
			Channels: mixChannels,
		},
	}

	md, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: d.onData,
	})
	if err != nil {
		d.teardownPool.close()
		return nil, fmt.Errorf("playback: init device: %w", err)
	}
	d.malgoDevice = md

	if err := md.Start(); err != nil {
		md.Uninit()
		d.teardownPool.close()
		return nil, fmt.Errorf("playback: start device: %w", err)
	}

	return d, nil
}

// onData is the mixer: the device thread's only entry point. It must
// never tear a finished sound down inline — it hands that off to the
// teardown pool, per the end-of-stream discipline.
func (d *Device) onData(output, _ []byte, frameCount uint32) {
	n := len(output) / bytesPerMixSample
	if cap(d.mixBuf) < n {
		d.mixBuf = make([]float32, n)
	}
	mix := d.mixBuf[:n]
	for i := range mix {
		mix[i] = 0
	}
	if cap(d.readBuf) < n {
		d.readBuf = make([]float32, n)
	}
	chunk := d.readBuf[:n]

	d.mu.Lock()
	var finished []uint64
	for handle, s := range d.sounds {
		read, err := s.decoder.Decode(chunk)
		for i := 0; i < read; i++ {
			mix[i] += chunk[i]
		}
		if err != nil {
			finished = append(finished, handle)
		}
	}
	for _, handle := range finished {
		s := d.sounds[handle]
		delete(d.sounds, handle)
		d.teardownPool.submit(s.onEnd)
	}
	d.mu.Unlock()

	vol := float32(d.volume())
	for i, v := range mix {
		v *= vol
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		mix[i] = v
	}

	writeFloat32LE(output, mix)
}

func writeFloat32LE(dst []byte, samples []float32) {
	for i, v := range samples {
		bits := math.Float32bits(v)
		off := i * bytesPerMixSample
		dst[off] = byte(bits)
		dst[off+1] = byte(bits >> 8)
		dst[off+2] = byte(bits >> 16)
		dst[off+3] = byte(bits >> 24)
	}
}

// addSound registers a sound under handle so the mixer starts feeding it
// on the next callback.
func (d *Device) addSound(handle uint64, s *sound) {
	d.mu.Lock()
	d.sounds[handle] = s
	d.mu.Unlock()
}

// removeSound drops handle from the mixer; it does not close the
// decoder, that is Request.cancel's job.
func (d *Device) removeSound(handle uint64) {
	d.mu.Lock()
	delete(d.sounds, handle)
	d.mu.Unlock()
}

// activeCount reports how many sounds are currently being mixed.
func (d *Device) activeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sounds)
}

// close tears the device down and waits for every teardown job already
// running to finish before returning, so a racing uninitPlayback can never return
// while a teardown worker is still about to touch a now-gone device.
func (d *Device) close() {
	if d.malgoDevice != nil {
		_ = d.malgoDevice.Stop()
		d.malgoDevice.Uninit()
	}
	d.teardownPool.close()
}

// teardownWorkerPool runs end-of-stream cancellation off the device
// thread. A shared pool of long-lived workers is preferable to spawning
// one throwaway goroutine per completion, per the design notes on this
// quirk of the underlying audio engine's callback contract.
type teardownWorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
	stop chan struct{}
}

func newTeardownWorkerPool(workers int) *teardownWorkerPool {
	p := &teardownWorkerPool{
		jobs: make(chan func(), 64),
		stop: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *teardownWorkerPool) run() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			runTeardownJob(job)
		case <-p.stop:
			return
		}
	}
}

// runTeardownJob runs one cancel/remove job guarded by recovery.HandlePanic,
// so a panic inside request.cancel or a host's end-of-stream hook is logged
// and fatal rather than silently killing a pool worker (or the overflow
// goroutine below) out from under the rest of the engine.
func runTeardownJob(job func()) {
	defer recovery.HandlePanic()
	job()
}

// submit enqueues a teardown job. If the queue is momentarily full, the
// job still runs off the device thread — on a fresh goroutine — rather
// than being dropped or run inline.
func (p *teardownWorkerPool) submit(job func()) {
	select {
	case p.jobs <- job:
	default:
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			runTeardownJob(job)
		}()
	}
}

// close stops the pool and waits for every in-flight job, on a worker or
// on an overflow goroutine, to finish. Jobs still queued that no worker
// has picked up are not run.
func (p *teardownWorkerPool) close() {
	p.once.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
}
