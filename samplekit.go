// SPDX-License-Identifier: EPL-2.0

package samplekit

import (
	"context"
	"errors"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/decode"
	"github.com/ik5/samplekit/effects"
	"github.com/ik5/samplekit/formats/wav"
	"github.com/ik5/samplekit/utils"
)

var ErrInvalidRate = errors.New("target sample rate must be positive")

var defaultAdapter = decode.New(nil)

// Process decodes the source at locator and runs it through the effect
// chain in the given mode. The decoded buffer never leaves the call.
func Process(ctx context.Context, locator string, s effects.Settings, mode effects.Mode) (*audio.Buffer, error) {
	buf, err := defaultAdapter.Decode(ctx, locator)
	if err != nil {
		return nil, err
	}

	return effects.Render(ctx, s.Request(buf, mode))
}

// Export renders locator at full length and writes it to dst as a 16-bit
// WAV at the source's rate and channel count.
func Export(ctx context.Context, locator, dst string, s effects.Settings) (*audio.Buffer, error) {
	out, err := Process(ctx, locator, s, effects.ModeFinal)
	if err != nil {
		return nil, err
	}

	if err := wav.WriteFile(dst, out); err != nil {
		return nil, err
	}

	return out, nil
}

// ToMono16 converts buf to 16-bit mono PCM at rate, the layout most
// telephony and speech tools expect.
func ToMono16(ctx context.Context, buf *audio.Buffer, rate int) ([]int16, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}

	mono, err := audio.Downmix(buf)
	if err != nil {
		return nil, err
	}

	if mono.SampleRate != rate {
		mono, err = audio.ReadAll(ctx, audio.NewResampler(mono.Source(), rate))
		if err != nil {
			return nil, err
		}
	}

	pcm := make([]int16, len(mono.Samples))
	for i, v := range mono.Samples {
		pcm[i] = utils.Float32ToInt16(v)
	}

	return pcm, nil
}
