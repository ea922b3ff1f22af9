// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"time"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"

	"github.com/ik5/samplekit/audio"
)

const (
	// MaxCompressorDB bounds the threshold and the makeup gain in both directions.
	MaxCompressorDB = 20.0
	// MaxCompressorRatio is the strongest ratio accepted (20:1).
	MaxCompressorRatio = 20.0
	// MaxKneeDB is the widest soft knee.
	MaxKneeDB = 20.0
	// MaxCompressorTime bounds attack and release.
	MaxCompressorTime = time.Second

	minAttackMs  = 0.1
	minReleaseMs = 1.0
)

// CompressorSettings drive the feed-forward compressor. The zero value
// bypasses the stage; a ratio of 1 with a makeup gain is a plain gain.
type CompressorSettings struct {
	ThresholdDB float64
	Ratio       float64
	// KneeDB is the soft knee width; 0 is a hard knee.
	KneeDB   float64
	MakeupDB float64
	Attack   time.Duration
	Release  time.Duration
}

// DefaultCompressor is the starting point offered to users.
var DefaultCompressor = CompressorSettings{
	ThresholdDB: -10,
	Ratio:       4,
	Attack:      10 * time.Millisecond,
	Release:     100 * time.Millisecond,
}

func (s CompressorSettings) normalized() CompressorSettings {
	return CompressorSettings{
		ThresholdDB: clamp(s.ThresholdDB, -MaxCompressorDB, MaxCompressorDB),
		Ratio:       clamp(s.Ratio, 1, MaxCompressorRatio),
		KneeDB:      clamp(s.KneeDB, 0, MaxKneeDB),
		MakeupDB:    clamp(s.MakeupDB, -MaxCompressorDB, MaxCompressorDB),
		Attack:      min(max(s.Attack, 0), MaxCompressorTime),
		Release:     min(max(s.Release, 0), MaxCompressorTime),
	}
}

// Active reports whether the stage changes the signal at all.
func (s CompressorSettings) Active() bool {
	n := s.normalized()
	return n.Ratio > 1 || n.MakeupDB != 0
}

func (s CompressorSettings) compressor(sampleRate int) (*dynamics.Compressor, error) {
	c, err := dynamics.NewCompressor(float64(sampleRate))
	if err != nil {
		return nil, err
	}

	ms := func(d time.Duration, lo float64) float64 {
		return max(float64(d)/float64(time.Millisecond), lo)
	}

	if err := c.SetThreshold(s.ThresholdDB); err != nil {
		return nil, err
	}
	if err := c.SetRatio(s.Ratio); err != nil {
		return nil, err
	}
	if err := c.SetKnee(s.KneeDB); err != nil {
		return nil, err
	}
	if err := c.SetAttack(ms(s.Attack, minAttackMs)); err != nil {
		return nil, err
	}
	if err := c.SetRelease(ms(s.Release, minReleaseMs)); err != nil {
		return nil, err
	}
	// A manual makeup gain, even 0 dB, switches off the automatic one.
	if err := c.SetMakeupGain(s.MakeupDB); err != nil {
		return nil, err
	}

	return c, nil
}

// Compress runs the compressor over every channel of buf and returns a new
// buffer. Each channel has its own level detector, starting from silence.
func Compress(buf *audio.Buffer, settings CompressorSettings) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := buf.Clone()
	s := settings.normalized()
	if !s.Active() {
		return out, nil
	}

	ch := buf.Channels
	for c := range ch {
		comp, err := s.compressor(buf.SampleRate)
		if err != nil {
			return nil, err
		}
		for i := c; i < len(out.Samples); i += ch {
			out.Samples[i] = float32(comp.ProcessSample(float64(out.Samples[i])))
		}
	}

	return out, nil
}
