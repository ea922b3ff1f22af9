// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/utils"
)

// DefaultPreviewMax caps how much audio a preview render produces.
const DefaultPreviewMax = 10 * time.Second

var ErrInvalidTempo = errors.New("tempo must be a positive ratio")

type Mode int

const (
	ModePreview Mode = iota
	ModeFinal
)

func (m Mode) String() string {
	if m == ModeFinal {
		return "final"
	}
	return "preview"
}

// Settings is every user-facing effect parameter of a clip.
type Settings struct {
	EQ         EQSettings
	Compressor CompressorSettings
	Reverb     ReverbSettings
	ADSR       ADSR

	Semitones int
	Tempo     float64
}

// Request builds a render request for src.
func (s Settings) Request(src *audio.Buffer, mode Mode) Request {
	return Request{
		Source:     src,
		EQ:         s.EQ,
		Compressor: s.Compressor,
		Reverb:     s.Reverb,
		ADSR:       s.ADSR,
		Semitones:  s.Semitones,
		Tempo:      s.Tempo,
		Mode:       mode,
	}
}

// Request is one pass through the effect chain.
type Request struct {
	Source *audio.Buffer

	EQ         EQSettings
	Compressor CompressorSettings
	Reverb     ReverbSettings
	ADSR       ADSR

	// Semitones shifts pitch and keeps the length; Tempo scales speed and
	// keeps the pitch (1 = unchanged, 0 is read as 1).
	Semitones int
	Tempo     float64

	Mode Mode
	// MaxPreview overrides DefaultPreviewMax in preview mode.
	MaxPreview time.Duration
}

// Render applies EQ, compression, reverb, pitch and tempo, then the
// envelope, in that order. The result is limited to [-1,1]; the stages on
// their own may exceed it. Every stage returns a new buffer; req.Source is
// never modified.
func Render(ctx context.Context, req Request) (*audio.Buffer, error) {
	if err := req.Source.Validate(); err != nil {
		return nil, err
	}

	tempo, err := normalizeTempo(req.Tempo)
	if err != nil {
		return nil, err
	}
	semitones := min(max(req.Semitones, -MaxSemitones), MaxSemitones)

	buf := req.Source
	limit := -1
	if req.Mode == ModePreview {
		maxDur := req.MaxPreview
		if maxDur <= 0 {
			maxDur = DefaultPreviewMax
		}
		limit = int(maxDur.Seconds() * float64(buf.SampleRate))
		// Skip work on input that cannot reach the output.
		need := int(math.Ceil(float64(limit)*tempo)) + 4
		buf = truncate(buf, need)
	}

	if buf, err = EQ(buf, req.EQ); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if buf, err = Compress(buf, req.Compressor); err != nil {
		return nil, err
	}
	if buf, err = Reverb(buf, req.Reverb); err != nil {
		return nil, err
	}

	if buf, err = stretch(ctx, buf, tempo, PitchRatio(semitones)); err != nil {
		return nil, err
	}

	if limit >= 0 {
		buf = truncate(buf, limit)
	}

	if buf, err = req.ADSR.Apply(buf); err != nil {
		return nil, err
	}
	for i, v := range buf.Samples {
		buf.Samples[i] = utils.ClampUnit(v)
	}

	return buf, nil
}

// RenderPreview is Render in preview mode.
func RenderPreview(ctx context.Context, req Request) (*audio.Buffer, error) {
	req.Mode = ModePreview
	return Render(ctx, req)
}

func varispeed(ctx context.Context, buf *audio.Buffer, speed float64) (*audio.Buffer, error) {
	if speed == 1 || buf.Frames() == 0 {
		return buf, nil
	}

	r := audio.NewVarispeed(buf.Source(), speed)
	defer r.Close()

	return audio.ReadAll(ctx, r)
}

// truncate returns buf cut to at most frames frames. The samples are
// shared with buf; callers only hand the result to stages that copy.
func truncate(buf *audio.Buffer, frames int) *audio.Buffer {
	if frames >= buf.Frames() {
		return buf
	}
	return buf.WithSamples(buf.Samples[:frames*buf.Channels])
}
