// SPDX-License-Identifier: EPL-2.0

package waveform

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ossrs/go-oryx-lib/logger"
	"golang.org/x/sync/semaphore"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/decode"
)

const (
	// DefaultBuckets is the summary length the UI asks for.
	DefaultBuckets = 100
	// MaxConcurrent bounds simultaneous extractions per Extractor.
	MaxConcurrent = 2
)

var ErrInvalidBuckets = errors.New("bucket count must be positive")

// Decoder produces a buffer from a locator. *decode.Adapter satisfies it.
type Decoder interface {
	Decode(ctx context.Context, locator string) (*audio.Buffer, error)
}

// Extractor summarizes clips into amplitude buckets. At most MaxConcurrent
// extractions run at once; further callers wait for a slot.
type Extractor struct {
	dec Decoder
	sem *semaphore.Weighted
}

// Default is the process-wide extractor, so every caller shares one gate.
var Default = New(decode.New(nil))

func New(dec Decoder) *Extractor {
	return &Extractor{dec: dec, sem: semaphore.NewWeighted(MaxConcurrent)}
}

// Extract decodes locator and summarizes it into n buckets. Any failure is
// logged and yields an empty summary.
func (e *Extractor) Extract(ctx context.Context, locator string, n int) []float32 {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		logger.Wf(ctx, "waveform %v wait err %+v", locator, err)
		return []float32{}
	}
	defer e.sem.Release(1)

	buf, err := e.dec.Decode(ctx, locator)
	if err != nil {
		logger.Ef(ctx, "waveform %v decode err %+v", locator, err)
		return []float32{}
	}

	return summarizeOrEmpty(ctx, buf, n)
}

// ExtractBuffer summarizes an already decoded buffer under the same gate.
func (e *Extractor) ExtractBuffer(ctx context.Context, buf *audio.Buffer, n int) []float32 {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		logger.Wf(ctx, "waveform wait err %+v", err)
		return []float32{}
	}
	defer e.sem.Release(1)

	return summarizeOrEmpty(ctx, buf, n)
}

func summarizeOrEmpty(ctx context.Context, buf *audio.Buffer, n int) []float32 {
	out, err := Summarize(buf, n)
	if err != nil {
		logger.Ef(ctx, "waveform summarize err %+v", err)
		return []float32{}
	}
	return out
}

// Summarize maps every frame to one of n buckets and averages the mean
// absolute amplitude of the frames in each. Values are clamped to [0,1];
// buckets no frame lands in stay 0.
func Summarize(buf *audio.Buffer, n int) ([]float32, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBuckets, n)
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	frames := buf.Frames()
	if frames == 0 {
		return nil, fmt.Errorf("%w: no frames", audio.ErrInvalidBuffer)
	}

	sums := make([]float64, n)
	hits := make([]int, n)
	width := float64(frames) / float64(n)
	ch := buf.Channels

	for f := range frames {
		var amp float64
		for _, s := range buf.Samples[f*ch : (f+1)*ch] {
			v := math.Abs(float64(s))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			amp += v
		}

		b := min(max(int(float64(f)/width), 0), n-1)
		sums[b] += amp / float64(ch)
		hits[b]++
	}

	out := make([]float32, n)
	for i := range out {
		if hits[i] == 0 {
			continue
		}
		out[i] = float32(min(max(sums[i]/float64(hits[i]), 0), 1))
	}

	return out, nil
}
