// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/samplekit/utils"
)

// Resampler streams from src at a different speed using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// When it consumes the source faster than real time a one-pole low-pass
// filter runs on the input to tame aliasing.
type Resampler struct {
	src      Source
	outRate  int
	step     float64 // source frames consumed per output frame
	channels int

	// hist[0..3] hold frames t-1, t0, t+1, t+2 around the read position.
	hist  [4][]float32
	valid [4]bool
	pos   float64 // fractional position between hist[1] and hist[2]

	primed bool
	eof    bool
	frame  []float32

	lowpass bool
	seeded  bool
	alpha   float32
	state   []float32
}

// NewResampler converts src to dstRate.
func NewResampler(src Source, dstRate int) *Resampler {
	return newResampler(src, float64(src.SampleRate())/float64(dstRate), dstRate)
}

// NewVarispeed plays src speed times faster while keeping its sample rate.
// A speed of 2 raises the pitch by an octave and halves the duration.
func NewVarispeed(src Source, speed float64) *Resampler {
	return newResampler(src, speed, src.SampleRate())
}

func newResampler(src Source, step float64, outRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		outRate:  outRate,
		step:     step,
		channels: channels,
		frame:    make([]float32, channels),
		state:    make([]float32, channels),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}

	if step > 1.0 {
		r.lowpass = true
		r.alpha = float32(1.0 / step)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.outRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// pull reads one frame from the source into dst.
func (r *Resampler) pull(dst []float32) (bool, error) {
	for range maxEmptyReads {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.frame)
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("%w", err)
		}

		if n == r.channels {
			copy(dst, r.frame)
			r.filter(dst)
			return true, nil
		}
		if n > 0 {
			// A short read is a truncated trailing frame; drop it.
			return false, nil
		}
	}

	return false, io.ErrNoProgress
}

func (r *Resampler) filter(frame []float32) {
	if !r.lowpass {
		return
	}
	if !r.seeded {
		// Start from the first frame to avoid a warm-up transient.
		copy(r.state, frame)
		r.seeded = true
	}
	for c := range r.channels {
		frame[c] = r.alpha*frame[c] + (1-r.alpha)*r.state[c]
		r.state[c] = frame[c]
	}
}

func (r *Resampler) shift() error {
	for i := range 3 {
		copy(r.hist[i], r.hist[i+1])
		r.valid[i] = r.valid[i+1]
	}

	ok, err := r.pull(r.hist[3])
	r.valid[3] = ok
	return err
}

func (r *Resampler) prime() error {
	for i := 1; i < 4; i++ {
		ok, err := r.pull(r.hist[i])
		if err != nil {
			return err
		}
		r.valid[i] = ok
		if !ok {
			break
		}
	}
	r.primed = true
	return nil
}

// ReadSamples produces resampled frames into dst.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.shift(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.valid[1] {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range r.channels {
			y1 := r.hist[1][c]
			y0, y2 := y1, y1
			if r.valid[0] {
				y0 = r.hist[0][c]
			}
			if r.valid[2] {
				y2 = r.hist[2][c]
			}
			y3 := y2
			if r.valid[3] {
				y3 = r.hist[3][c]
			}
			out[c] = utils.CubicInterpolate(y0, y1, y2, y3, x)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
