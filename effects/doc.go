// SPDX-License-Identifier: EPL-2.0

// Package effects is the whole-buffer DSP chain: an 8-band peaking EQ, a
// feed-forward compressor, a Freeverb-style reverb with predelay, a WSOLA
// pitch shifter, a pitch-preserving time stretch and an ADSR envelope. The
// filters, delay lines, dynamics and shifter come from algo-dsp.
//
// Every stage takes an *audio.Buffer and returns a new one. No filter state
// survives between calls. The stage functions do not limit their output, so
// a strong EQ boost can leave samples beyond [-1,1]; Render clamps the end
// of the chain back into range.
//
//	out, err := effects.Render(ctx, effects.Request{
//		Source:     buf,
//		EQ:         effects.EQSettings{4: 6},
//		Compressor: effects.DefaultCompressor,
//		Reverb:     effects.ReverbSettings{Wet: 0.3, Size: 0.8},
//		Semitones:  -3,
//		Mode:       effects.ModeFinal,
//	})
package effects
