// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"fmt"
	"io"
	"time"
)

// maxEmptyReads bounds how many consecutive (0, nil) reads ReadAll tolerates
// before it gives up on a source that makes no progress.
const maxEmptyReads = 100

// Buffer is a whole decoded clip held in memory.
// Samples are interleaved by channel and normalized to [-1,1].
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// NewBuffer validates and wraps samples. The slice is not copied.
func NewBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	b := &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the sample rate, channel count and frame alignment.
func (b *Buffer) Validate() error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	case b.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, b.SampleRate)
	case b.Channels < 1:
		return fmt.Errorf("%w: channel count %d", ErrInvalidBuffer, b.Channels)
	case len(b.Samples)%b.Channels != 0:
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			ErrInvalidBuffer, len(b.Samples), b.Channels)
	}
	return nil
}

// Frames is the number of samples per channel.
func (b *Buffer) Frames() int {
	if b.Channels < 1 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Clone returns a deep copy so stages never alias each other's samples.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Samples:    make([]float32, len(b.Samples)),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
	copy(out.Samples, b.Samples)
	return out
}

// WithSamples returns a buffer with the same format as b holding samples.
func (b *Buffer) WithSamples(samples []float32) *Buffer {
	return &Buffer{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Source exposes the buffer through the streaming Source interface, so the
// streaming processors (Resampler, MonoMixer) can run over it.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.Samples) {
		return 0, io.EOF
	}
	// Only hand out whole frames.
	want := len(dst) - len(dst)%s.buf.Channels
	n := copy(dst[:want], s.buf.Samples[s.pos:])
	s.pos += n
	if s.pos >= len(s.buf.Samples) {
		return n, io.EOF
	}
	return n, nil
}

// ReadAll drains src into a Buffer. It does not close src.
// The context is checked between reads.
func ReadAll(ctx context.Context, src Source) (*Buffer, error) {
	channels := src.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count %d", ErrInvalidBuffer, channels)
	}

	chunk := src.BufSize()
	if chunk < channels {
		chunk = 4096
	}
	chunk -= chunk % channels
	tmp := make([]float32, chunk)

	var (
		samples []float32
		empty   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := src.ReadSamples(tmp)
		if n > 0 {
			samples = append(samples, tmp[:n]...)
			empty = 0
		} else if err == nil {
			empty++
			if empty >= maxEmptyReads {
				return nil, fmt.Errorf("%w", io.ErrNoProgress)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	// Drop a trailing partial frame left by a truncated stream.
	samples = samples[:len(samples)-len(samples)%channels]

	return &Buffer{Samples: samples, SampleRate: src.SampleRate(), Channels: channels}, nil
}
