// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/pitch"

	"github.com/ik5/samplekit/audio"
)

const (
	// MaxSemitones bounds the pitch offset in both directions.
	MaxSemitones = 24

	// MinTempo and MaxTempo bound the speed ratio.
	MinTempo = 0.25
	MaxTempo = 4.0

	// One shifter pass covers two octaves either way.
	minShiftStep = 0.25
	maxShiftStep = 4.0
)

// PitchRatio is the frequency ratio for a semitone offset.
func PitchRatio(semitones int) float64 {
	return pitch.SemitonesToRatio(float64(semitones))
}

// PitchShift moves every channel of buf by semitones without changing its
// length. The result is a new buffer.
func PitchShift(ctx context.Context, buf *audio.Buffer, semitones int) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	semitones = min(max(semitones, -MaxSemitones), MaxSemitones)
	out, err := shift(ctx, buf, PitchRatio(semitones))
	if err != nil {
		return nil, err
	}
	if out == buf {
		out = buf.Clone()
	}
	return out, nil
}

// TimeStretch plays buf tempo times faster without changing its pitch:
// 2 halves the length, 0.5 doubles it.
func TimeStretch(ctx context.Context, buf *audio.Buffer, tempo float64) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	tempo, err := normalizeTempo(tempo)
	if err != nil {
		return nil, err
	}
	out, err := stretch(ctx, buf, tempo, 1)
	if err != nil {
		return nil, err
	}
	if out == buf {
		out = buf.Clone()
	}
	return out, nil
}

// stretch changes the length of buf by 1/tempo and its pitch by ratio.
// The tape-style resampler sets the length, then the pitch shifter undoes
// the tape's pitch change and applies ratio in the same pass.
func stretch(ctx context.Context, buf *audio.Buffer, tempo, ratio float64) (*audio.Buffer, error) {
	buf, err := varispeed(ctx, buf, tempo)
	if err != nil {
		return nil, err
	}
	return shift(ctx, buf, ratio/tempo)
}

// shift runs the WSOLA shifter over each channel. Ratios beyond one
// shifter pass are split into several passes. buf is returned as is when
// there is nothing to do.
func shift(ctx context.Context, buf *audio.Buffer, ratio float64) (*audio.Buffer, error) {
	steps := shiftSteps(ratio)
	if len(steps) == 0 || buf.Frames() == 0 {
		return buf, nil
	}

	shifters := make([]*pitch.PitchShifter, len(steps))
	for i, step := range steps {
		p, err := pitch.NewPitchShifter(float64(buf.SampleRate))
		if err != nil {
			return nil, err
		}
		if err := p.SetPitchRatio(step); err != nil {
			return nil, err
		}
		shifters[i] = p
	}

	ch := buf.Channels
	frames := buf.Frames()
	out := buf.Clone()
	lane := make([]float64, frames)
	for c := range ch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for f := range frames {
			lane[f] = float64(buf.Samples[f*ch+c])
		}
		for _, p := range shifters {
			p.ProcessInPlace(lane)
		}
		for f, v := range lane {
			out.Samples[f*ch+c] = float32(v)
		}
	}

	return out, nil
}

func shiftSteps(ratio float64) []float64 {
	var steps []float64
	for ratio > maxShiftStep {
		steps = append(steps, maxShiftStep)
		ratio /= maxShiftStep
	}
	for ratio < minShiftStep {
		steps = append(steps, minShiftStep)
		ratio /= minShiftStep
	}
	if math.Abs(ratio-1) > 1e-9 {
		steps = append(steps, ratio)
	}
	return steps
}

func normalizeTempo(tempo float64) (float64, error) {
	if tempo == 0 {
		return 1, nil
	}
	if tempo < 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTempo, tempo)
	}
	return min(max(tempo, MinTempo), MaxTempo), nil
}
