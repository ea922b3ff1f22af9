// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"time"

	"github.com/ik5/samplekit/audio"
)

// ADSR is an amplitude envelope laid over a whole buffer. The release
// occupies the last Release of the buffer and falls from the level reached
// at its start. The zero value disables the envelope.
type ADSR struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain float64
	Release time.Duration
}

// Bypass is an envelope that leaves the signal untouched.
var Bypass = ADSR{Sustain: 1}

func (e ADSR) IsZero() bool { return e == ADSR{} }

// level returns the attack/decay/sustain gain at t seconds.
func (e ADSR) level(t float64) float64 {
	attack := e.Attack.Seconds()
	decay := e.Decay.Seconds()
	sustain := clamp(e.Sustain, 0, 1)

	switch {
	case t < attack:
		return t / attack
	case t < attack+decay:
		return 1 - (1-sustain)*(t-attack)/decay
	}
	return sustain
}

// Gain returns the envelope gain at t for a clip of the given length.
func (e ADSR) Gain(t, length time.Duration) float64 {
	sec := t.Seconds()
	release := min(e.Release, length).Seconds()
	relStart := length.Seconds() - release

	if release > 0 && sec >= relStart {
		return e.level(relStart) * clamp(1-(sec-relStart)/release, 0, 1)
	}
	return e.level(sec)
}

// Apply returns a copy of buf shaped by the envelope.
func (e ADSR) Apply(buf *audio.Buffer) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := buf.Clone()
	if e.IsZero() {
		return out, nil
	}

	ch := buf.Channels
	rate := time.Duration(buf.SampleRate)
	length := buf.Duration()
	for f := range buf.Frames() {
		g := float32(e.Gain(time.Duration(f)*time.Second/rate, length))
		for i := f * ch; i < (f+1)*ch; i++ {
			out.Samples[i] *= g
		}
	}

	return out, nil
}
