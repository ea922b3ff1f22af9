// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds signal generators shared by the package tests.
// It deliberately does not import the audio package so the audio package's
// own tests can use it.
package audiotest

import (
	"io"
	"math"
)

// MockSource generates audio on demand and satisfies audio.Source.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // frames to generate
	generated    int // frames generated so far
	waveform     func(sample int, channel int) float32

	// Closed is set once Close has been called.
	Closed bool
	// ReadErr, when set, is returned by ReadSamples after FailAfter frames.
	ReadErr   error
	FailAfter int
}

// NewMockSource creates a source of totalSamples frames whose values come
// from waveform(frameIndex, channel).
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return 0.0
	})
}

// NewSineSource generates a full-scale sine of frequency Hz on every channel.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.ReadErr != nil && m.generated >= m.FailAfter {
		return 0, m.ReadErr
	}
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	framesToWrite := min(len(dst)/m.channels, m.totalSamples-m.generated)
	if m.ReadErr != nil {
		framesToWrite = min(framesToWrite, m.FailAfter-m.generated)
	}

	for frame := range framesToWrite {
		idx := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(idx, ch)
		}
	}

	m.generated += framesToWrite
	n := framesToWrite * m.channels

	if m.generated >= m.totalSamples {
		return n, io.EOF
	}
	return n, nil
}

// Sine returns frames of an interleaved sine of amplitude amp on every channel.
func Sine(sampleRate, channels, frames int, frequency, amp float64) []float32 {
	out := make([]float32, frames*channels)
	for f := range frames {
		v := float32(amp * math.Sin(2*math.Pi*frequency*float64(f)/float64(sampleRate)))
		for c := range channels {
			out[f*channels+c] = v
		}
	}
	return out
}

// Impulse returns a mono buffer of frames samples with a single 1.0 at index 0.
func Impulse(frames int) []float32 {
	out := make([]float32, frames)
	if frames > 0 {
		out[0] = 1
	}
	return out
}

// Noise returns deterministic pseudo-random samples in [-amp, amp].
func Noise(n int, amp float32, seed uint32) []float32 {
	out := make([]float32, n)
	x := seed | 1
	for i := range out {
		// xorshift32
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = amp * (float32(x)/float32(math.MaxUint32)*2 - 1)
	}
	return out
}

// FirstAbove returns the index of the first sample with |x| > threshold, or -1.
func FirstAbove(samples []float32, threshold float64) int {
	for i, s := range samples {
		if math.Abs(float64(s)) > threshold {
			return i
		}
	}
	return -1
}

// MaxAbsDiff returns max|a[i]-b[i]| over the common length.
func MaxAbsDiff(a, b []float32) float64 {
	var worst float64
	for i := range min(len(a), len(b)) {
		worst = max(worst, math.Abs(float64(a[i])-float64(b[i])))
	}
	return worst
}

// MeanAbsDiff returns the average |a[i]-b[i]| over the common length.
func MeanAbsDiff(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(n)
}
