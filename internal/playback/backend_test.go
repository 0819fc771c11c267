package playback

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// constSamples is a Decoder stub that yields the same value for `left`
// samples in total and then reports EOF, used to exercise the mixer
// without a real device.
type constSamples struct {
	value float32
	left  int
}

func (c *constSamples) Decode(buf []float32) (int, error) {
	n := len(buf)
	if n > c.left {
		n = c.left
	}
	for i := 0; i < n; i++ {
		buf[i] = c.value
	}
	c.left -= n
	if c.left == 0 {
		return n, io.EOF
	}
	return n, nil
}
func (c *constSamples) Channels() uint32   { return mixChannels }
func (c *constSamples) SampleRate() uint32 { return mixSampleRate }
func (c *constSamples) Close() error       { return nil }

func newTestDeviceForMixing(volume float64) *Device {
	return &Device{
		sounds:       make(map[uint64]*sound),
		volume:       func() float64 { return volume },
		teardownPool: newTeardownWorkerPool(1),
	}
}

func TestDevice_OnData_MixesTwoSounds(t *testing.T) {
	d := newTestDeviceForMixing(1.0)
	defer d.teardownPool.close()

	d.addSound(1, newSound(&constSamples{value: 0.3, left: 1000}, func() {}))
	d.addSound(2, newSound(&constSamples{value: 0.2, left: 1000}, func() {}))

	frameCount := uint32(4)
	output := make([]byte, int(frameCount)*mixChannels*bytesPerMixSample)
	d.onData(output, nil, frameCount)

	got := math.Float32frombits(binary.LittleEndian.Uint32(output[0:4]))
	want := float32(0.5)
	if diff := got - want; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("mixed sample = %v, want %v", got, want)
	}
}

func TestDevice_OnData_SilentWhenNoSounds(t *testing.T) {
	d := newTestDeviceForMixing(1.0)
	defer d.teardownPool.close()

	output := make([]byte, 4*mixChannels*bytesPerMixSample)
	d.onData(output, nil, 4)

	for i := range output {
		if output[i] != 0 {
			t.Fatalf("output[%d] = %d, want 0 (silence)", i, output[i])
		}
	}
}

func TestDevice_OnData_AppliesVolume(t *testing.T) {
	d := newTestDeviceForMixing(0.5)
	defer d.teardownPool.close()

	d.addSound(1, newSound(&constSamples{value: 1.0, left: 1000}, func() {}))

	output := make([]byte, 4*mixChannels*bytesPerMixSample)
	d.onData(output, nil, 4)

	got := math.Float32frombits(binary.LittleEndian.Uint32(output[0:4]))
	if diff := got - 0.5; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("volume-scaled sample = %v, want 0.5", got)
	}
}

func TestDevice_OnData_ClampsOverdrivenMix(t *testing.T) {
	d := newTestDeviceForMixing(1.0)
	defer d.teardownPool.close()

	d.addSound(1, newSound(&constSamples{value: 0.9, left: 1000}, func() {}))
	d.addSound(2, newSound(&constSamples{value: 0.9, left: 1000}, func() {}))

	output := make([]byte, 4*mixChannels*bytesPerMixSample)
	d.onData(output, nil, 4)

	got := math.Float32frombits(binary.LittleEndian.Uint32(output[0:4]))
	if got != 1.0 {
		t.Errorf("clamped sample = %v, want 1.0", got)
	}
}

func TestDevice_OnData_SchedulesTeardownOnEOF_NotInline(t *testing.T) {
	d := newTestDeviceForMixing(1.0)
	defer d.teardownPool.close()

	done := make(chan struct{})
	d.addSound(1, newSound(&constSamples{value: 0.1, left: 2}, func() {
		close(done)
	}))

	output := make([]byte, 4*mixChannels*bytesPerMixSample) // frameCount*channels=8 samples > left=2
	d.onData(output, nil, 4)

	if d.activeCount() != 0 {
		t.Error("finished sound was not removed from the mixer")
	}
	<-done // the teardown callback must eventually run, off this goroutine
}

func TestDevice_AddRemoveSound(t *testing.T) {
	d := newTestDeviceForMixing(1.0)
	defer d.teardownPool.close()

	d.addSound(1, newSound(&constSamples{value: 0.1, left: 1000}, func() {}))
	if d.activeCount() != 1 {
		t.Fatalf("activeCount() = %d, want 1", d.activeCount())
	}

	d.removeSound(1)
	if d.activeCount() != 0 {
		t.Errorf("activeCount() after removeSound = %d, want 0", d.activeCount())
	}
}
