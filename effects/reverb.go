// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/ik5/samplekit/audio"
)

// Freeverb tunings at 44.1 kHz, in samples.
var (
	combTunings    = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTunings = [...]int{556, 441, 341, 225}
)

const (
	tuningRate   = 44100.0
	stereoSpread = 23

	fixedGain       = 0.015
	wetScale        = 3.0
	damping         = 0.2 // 0.5 scaled by Freeverb's 0.4 damp factor
	allpassFeedback = 0.5

	lfoRate       = 0.5 // Hz
	maxModulation = 8.0 // samples
	MaxPredelayMs = 500.0
	roomScale     = 0.28
	roomOffset    = 0.7
)

// ReverbSettings drive the Freeverb tank. All ratios are in [0,1].
type ReverbSettings struct {
	Wet   float64
	Size  float64
	Width float64
	// Depth modulates the comb read taps with a slow LFO.
	Depth      float64
	PredelayMs float64
}

func (s ReverbSettings) normalized() ReverbSettings {
	return ReverbSettings{
		Wet:        clamp(s.Wet, 0, 1),
		Size:       clamp(s.Size, 0, 1),
		Width:      clamp(s.Width, 0, 1),
		Depth:      clamp(s.Depth, 0, 1),
		PredelayMs: clamp(s.PredelayMs, 0, MaxPredelayMs),
	}
}

// PredelaySamples converts a predelay in milliseconds to whole samples.
func PredelaySamples(ms float64, sampleRate int) int {
	return int(math.Round(clamp(ms, 0, MaxPredelayMs) * float64(sampleRate) / 1000))
}

type comb struct {
	line  *delay.Line
	delay float64
	store float64
	phase float64
	fb    float64
	depth float64 // modulation in samples
}

func (c *comb) process(in float64, t float64) float64 {
	mod := 0.0
	if c.depth > 0 {
		mod = c.depth * 0.5 * (1 - math.Cos(2*math.Pi*lfoRate*t+c.phase))
	}
	out := c.line.ReadFractional(c.delay - mod)
	c.store = out*(1-damping) + c.store*damping
	c.line.Write(in + c.store*c.fb)
	return out
}

type allpass struct {
	line  *delay.Line
	delay int
}

func (a *allpass) process(in float64) float64 {
	bufout := a.line.Read(a.delay)
	a.line.Write(in + bufout*allpassFeedback)
	return bufout - in
}

// tank is one channel's comb bank and all-pass chain.
type tank struct {
	combs     []*comb
	allpasses []*allpass
}

func newTank(sampleRate int, spread int, s ReverbSettings) (*tank, error) {
	scale := float64(sampleRate) / tuningRate
	fb := roomOffset + roomScale*s.Size

	t := &tank{}
	for i, n := range combTunings {
		d := max(2, int(math.Round(float64(n+spread)*scale)))
		line, err := delay.New(d+2, delay.WithMode(interp.Linear))
		if err != nil {
			return nil, err
		}
		t.combs = append(t.combs, &comb{
			line:  line,
			delay: float64(d),
			phase: 2 * math.Pi * float64(i) / float64(len(combTunings)),
			fb:    fb,
			depth: math.Min(s.Depth*maxModulation, float64(d-1)),
		})
	}
	for _, n := range allpassTunings {
		d := max(1, int(math.Round(float64(n+spread)*scale)))
		line, err := delay.New(d)
		if err != nil {
			return nil, err
		}
		t.allpasses = append(t.allpasses, &allpass{line: line, delay: d})
	}
	return t, nil
}

func (t *tank) process(in float64, time float64) float64 {
	var sum float64
	for _, c := range t.combs {
		sum += c.process(in, time)
	}
	for _, a := range t.allpasses {
		sum = a.process(sum)
	}
	return sum
}

// Reverb renders a Freeverb-style tail into a buffer of the same length.
// The predelay shifts only the wet path; wet=0 returns an exact copy.
func Reverb(buf *audio.Buffer, settings ReverbSettings) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	s := settings.normalized()
	out := buf.Clone()
	if s.Wet == 0 {
		return out, nil
	}

	ch := buf.Channels
	frames := buf.Frames()
	predelay := PredelaySamples(s.PredelayMs, buf.SampleRate)
	rate := float64(buf.SampleRate)
	in := buf.Samples

	wetSample := func(frame, c int) float64 {
		src := frame - predelay
		if src < 0 {
			return 0
		}
		return float64(in[src*ch+c])
	}

	if ch == 2 {
		left, err := newTank(buf.SampleRate, 0, s)
		if err != nil {
			return nil, err
		}
		right, err := newTank(buf.SampleRate, stereoSpread, s)
		if err != nil {
			return nil, err
		}
		wet1 := s.Width/2 + 0.5
		wet2 := (1 - s.Width) / 2

		for f := range frames {
			t := float64(f) / rate
			feed := (wetSample(f, 0) + wetSample(f, 1)) * fixedGain
			l := left.process(feed, t) * wetScale
			r := right.process(feed, t) * wetScale

			i := f * 2
			out.Samples[i] = mix(in[i], l*wet1+r*wet2, s.Wet)
			out.Samples[i+1] = mix(in[i+1], r*wet1+l*wet2, s.Wet)
		}
		return out, nil
	}

	// Mono and layouts beyond stereo get an independent tank per channel.
	for c := range ch {
		tk, err := newTank(buf.SampleRate, 0, s)
		if err != nil {
			return nil, err
		}
		for f := range frames {
			t := float64(f) / rate
			w := tk.process(wetSample(f, c)*fixedGain, t) * wetScale
			i := f*ch + c
			out.Samples[i] = mix(in[i], w, s.Wet)
		}
	}

	return out, nil
}

func mix(dry float32, wet float64, amount float64) float32 {
	return float32(float64(dry)*(1-amount) + wet*amount)
}
