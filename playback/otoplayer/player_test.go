package otoplayer

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/internal/audiotest"
	"github.com/ik5/samplekit/preview"
)

var _ preview.Playback = (*Player)(nil)

func TestFloat32LE(t *testing.T) {
	t.Parallel()

	in := []float32{0, 1, -1, 0.25}
	out := Float32LE(in)
	if len(out) != len(in)*4 {
		t.Fatalf("len = %d, want %d", len(out), len(in)*4)
	}
	for i, want := range in {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
		if got != want {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}
}

func TestConform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		buf        *audio.Buffer
		rate, ch   int
		wantFrames int
	}{
		{"passthrough", &audio.Buffer{Samples: make([]float32, 200), SampleRate: 44100, Channels: 2}, 44100, 2, 100},
		{"mono to stereo", &audio.Buffer{Samples: make([]float32, 100), SampleRate: 44100, Channels: 1}, 44100, 2, 100},
		{"quad to stereo", &audio.Buffer{Samples: make([]float32, 400), SampleRate: 44100, Channels: 4}, 44100, 2, 100},
		{"upsample", &audio.Buffer{Samples: audiotest.Sine(22050, 1, 2205, 440, 0.5), SampleRate: 22050, Channels: 1}, 44100, 2, 4410},
		{"empty", &audio.Buffer{SampleRate: 8000, Channels: 1}, 44100, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Conform(tt.buf, tt.rate, tt.ch)
			if err != nil {
				t.Fatalf("Conform: %v", err)
			}
			if out.Channels != tt.ch {
				t.Errorf("channels = %d, want %d", out.Channels, tt.ch)
			}
			if got := out.Frames(); got < tt.wantFrames-4 || got > tt.wantFrames+4 {
				t.Errorf("frames = %d, want about %d", got, tt.wantFrames)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestConform_DuplicatesMono(t *testing.T) {
	t.Parallel()

	out, err := Conform(&audio.Buffer{Samples: []float32{0.1, -0.2}, SampleRate: 8000, Channels: 1}, 8000, 2)
	if err != nil {
		t.Fatalf("Conform: %v", err)
	}
	want := []float32{0.1, 0.1, -0.2, -0.2}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Fatalf("samples = %v, want %v", out.Samples, want)
		}
	}
}

func TestConform_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Conform(&audio.Buffer{Samples: make([]float32, 3), SampleRate: 8000, Channels: 2}, 8000, 2)
	if !errors.Is(err, audio.ErrInvalidBuffer) {
		t.Errorf("err = %v, want ErrInvalidBuffer", err)
	}
}
