package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/samplekit/internal/audiotest"
)

// drain reads src to EOF in chunks of size and returns everything it produced.
func drain(t testing.TB, src Source, size int) []float32 {
	t.Helper()

	buf := make([]float32, size)
	var samples []float32
	for {
		n, err := src.ReadSamples(buf)
		samples = append(samples, buf[:n]...)
		if err == io.EOF {
			return samples
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(audiotest.NewSilentSource(44100, 2, 1000), 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("Resampler.SampleRate() = %d, want 8000", resampler.SampleRate())
	}
	if resampler.Channels() != 2 {
		t.Errorf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}
}

func TestResampler_SameRate(t *testing.T) {
	t.Parallel()

	samples := drain(t, NewResampler(audiotest.NewConstantSource(8000, 1, 100, 0.5), 8000), 64)

	if len(samples) != 100 {
		t.Errorf("same-rate resample produced %d samples, want 100", len(samples))
	}
	for i, s := range samples {
		if math.Abs(float64(s-0.5)) > 1e-6 {
			t.Fatalf("samples[%d] = %v, want 0.5", i, s)
		}
	}
}

func TestResampler_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		srcRate   int
		dstRate   int
		frames    int
		want      int
		tolerance int
	}{
		{"downsample 44.1k to 8k", 44100, 8000, 44100, 8000, 100},
		{"upsample 8k to 44.1k", 8000, 44100, 8000, 44100, 500},
		{"extreme downsample", 96000, 8000, 96000, 8000, 100},
		{"extreme upsample", 8000, 96000, 8000, 96000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(tt.srcRate, 1, tt.frames, 440)
			samples := drain(t, NewResampler(src, tt.dstRate), 1024)

			if len(samples) < tt.want-tt.tolerance || len(samples) > tt.want+tt.tolerance {
				t.Errorf("resampled %d samples, want ≈%d (±%d)", len(samples), tt.want, tt.tolerance)
			}
			for i, s := range samples {
				if s < -1.5 || s > 1.5 {
					t.Fatalf("samples[%d] = %v, outside [-1.5, 1.5]", i, s)
				}
			}
		})
	}
}

func TestResampler_StereoPreserved(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(44100, 2, 1000, func(_ int, channel int) float32 {
		if channel == 0 {
			return 0.3
		}
		return 0.7
	})
	samples := drain(t, NewResampler(src, 22050), 256)

	if len(samples)%2 != 0 {
		t.Fatalf("stereo output has odd sample count %d", len(samples))
	}
	for i := 0; i < len(samples); i += 2 {
		if math.Abs(float64(samples[i]-0.3)) > 0.01 || math.Abs(float64(samples[i+1]-0.7)) > 0.01 {
			t.Fatalf("frame %d = (%v, %v), want (0.3, 0.7)", i/2, samples[i], samples[i+1])
		}
	}
}

func TestVarispeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		speed float64
		want  int
	}{
		{"octave up halves length", 2, 5000},
		{"octave down doubles length", 0.5, 20000},
		{"unity", 1, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := NewVarispeed(audiotest.NewSineSource(44100, 1, 10000, 220), tt.speed)
			if v.SampleRate() != 44100 {
				t.Errorf("Varispeed changed sample rate to %d", v.SampleRate())
			}

			got := len(drain(t, v, 512))
			if math.Abs(float64(got-tt.want)) > float64(tt.want)/50 {
				t.Errorf("speed %v produced %d frames, want ≈%d", tt.speed, got, tt.want)
			}
		})
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(audiotest.NewSilentSource(44100, 2, 100), 8000)

	_, err := resampler.ReadSamples(make([]float32, 3))
	if !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_VeryShortSource(t *testing.T) {
	t.Parallel()

	samples := drain(t, NewResampler(audiotest.NewConstantSource(8000, 1, 1, 0.25), 8000), 16)
	if len(samples) != 1 || samples[0] != 0.25 {
		t.Errorf("single-frame source resampled to %v, want [0.25]", samples)
	}

	samples = drain(t, NewResampler(audiotest.NewSilentSource(8000, 1, 0), 16000), 16)
	if len(samples) != 0 {
		t.Errorf("empty source produced %d samples", len(samples))
	}
}

func TestResampler_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := audiotest.NewSineSource(8000, 1, 1000, 100)
	src.ReadErr = boom
	src.FailAfter = 10

	r := NewResampler(src, 8000)
	buf := make([]float32, 4)
	var err error
	for range 100 {
		if _, err = r.ReadSamples(buf); err != nil {
			break
		}
	}
	if !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 1, 100)
	if err := NewResampler(src, 8000).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !src.Closed {
		t.Error("Close() did not close the underlying source")
	}
}

func TestResampler_SmallBuffer(t *testing.T) {
	t.Parallel()

	big := drain(t, NewResampler(audiotest.NewSineSource(44100, 2, 4410, 440), 16000), 4096)
	small := drain(t, NewResampler(audiotest.NewSineSource(44100, 2, 4410, 440), 16000), 2)

	if len(big) != len(small) {
		t.Fatalf("chunk size changed output length: %d vs %d", len(big), len(small))
	}
	if d := audiotest.MaxAbsDiff(big, small); d > 1e-6 {
		t.Errorf("chunk size changed output by %v", d)
	}
}

func BenchmarkResampler_Downsample(b *testing.B) {
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		r := NewResampler(audiotest.NewSineSource(44100, 1, 44100, 440), 8000)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}

func BenchmarkResampler_MultiChannel(b *testing.B) {
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		r := NewResampler(audiotest.NewSineSource(48000, 6, 4800, 440), 44100)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
