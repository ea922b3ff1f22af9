// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/ik5/samplekit/audio"
)

const (
	// Bands is the number of graphic EQ bands.
	Bands = 8

	// MaxGainDB bounds every band gain in both directions.
	MaxGainDB = 24.0

	// BandQ is shared by all peaking sections.
	BandQ = 1.41
)

// BandFrequencies are the EQ centres in Hz, lowest first.
var BandFrequencies = [Bands]float64{60, 170, 310, 600, 1000, 3000, 6000, 12000}

// EQSettings holds one gain in dB per band. The zero value is the identity.
type EQSettings [Bands]float64

// IsFlat reports whether every band is effectively zero.
func (s EQSettings) IsFlat() bool {
	for _, g := range s {
		if math.Abs(g) >= 1e-9 {
			return false
		}
	}
	return true
}

// Coefficients returns the peaking sections settings produce at sampleRate,
// lowest band first. Flat bands and bands too close to Nyquist are left out.
func (s EQSettings) Coefficients(sampleRate int) []biquad.Coefficients {
	rate := float64(sampleRate)
	nyquist := rate / 2

	var coeffs []biquad.Coefficients
	for i, freq := range BandFrequencies {
		gain := clamp(s[i], -MaxGainDB, MaxGainDB)
		if math.Abs(gain) < 1e-9 || freq >= nyquist*0.95 {
			continue
		}
		coeffs = append(coeffs, design.Peak(freq, gain, BandQ, rate))
	}
	return coeffs
}

// EQ runs the peaking cascade over every channel of buf and returns a new
// buffer. Filter state starts from zero on every call.
func EQ(buf *audio.Buffer, settings EQSettings) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := buf.Clone()
	coeffs := settings.Coefficients(buf.SampleRate)
	if len(coeffs) == 0 {
		return out, nil
	}

	ch := buf.Channels
	for c := range ch {
		chain := biquad.NewChain(coeffs)
		for i := c; i < len(out.Samples); i += ch {
			out.Samples[i] = float32(chain.ProcessSample(float64(out.Samples[i])))
		}
	}

	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
