// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/formats/wav"
	"github.com/ik5/samplekit/internal/audiotest"
)

func writeWAV(t *testing.T, dir, name string, frames, channels int) string {
	t.Helper()

	buf, err := audio.NewBuffer(audiotest.Sine(8000, channels, frames, 440, 0.5), 8000, channels)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := wav.WriteFile(path, buf); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), "wav"},
		{"riff but avi", []byte("RIFF\x24\x00\x00\x00AVI "), ""},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFF"), "aiff"},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFC"), "aiff"},
		{"ogg", []byte("OggS\x00\x02"), "ogg"},
		{"id3", []byte("ID3\x04\x00"), "mp3"},
		{"mpeg sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "mp3"},
		{"text", []byte("hello world!"), ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sniff(tt.header); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestFormatFromExt(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.wav":      "wav",
		"B.WAV":      "wav",
		"c.aif":      "aiff",
		"d.ogg":      "ogg",
		"e.mp3":      "mp3",
		"f.flac":     "",
		"noext":      "",
		"dir.ogg/x.": "",
	}
	for name, want := range tests {
		if got := FormatFromExt(name); got != want {
			t.Errorf("FormatFromExt(%q) = %q, want %q", name, got, want)
		}
	}

	if got := MIMEType("x.mp3"); got != "audio/mpeg" {
		t.Errorf("MIMEType(x.mp3) = %q", got)
	}
	if got := MIMEType("x.bin"); got != "application/octet-stream" {
		t.Errorf("MIMEType(x.bin) = %q", got)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	if p, err := Path("/tmp/a.wav"); err != nil || p != "/tmp/a.wav" {
		t.Errorf("Path(plain) = %q, %v", p, err)
	}
	if p, err := Path("file:///tmp/my%20clip.wav"); err != nil || p != filepath.FromSlash("/tmp/my clip.wav") {
		t.Errorf("Path(file URI) = %q, %v", p, err)
	}
	if _, err := Path("https://example.com/a.wav"); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("Path(https) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAdapter_DecodeWAV(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, t.TempDir(), "clip.wav", 800, 2)

	buf, err := New(nil).Decode(t.Context(), path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.SampleRate != 8000 || buf.Channels != 2 || buf.Frames() != 800 {
		t.Errorf("Decode() = %d Hz, %d ch, %d frames", buf.SampleRate, buf.Channels, buf.Frames())
	}
	for i, s := range buf.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %v outside [-1,1]", i, s)
		}
	}
}

func TestAdapter_SniffBeatsExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeWAV(t, dir, "clip.wav", 100, 1)
	renamed := filepath.Join(dir, "clip.mp3")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}

	info, err := New(nil).Probe(t.Context(), "file://"+filepath.ToSlash(renamed))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Format != "wav" || info.Frames != 100 {
		t.Errorf("Probe() = %+v, want wav with 100 frames", info)
	}
	if want := 100 * time.Second / 8000; info.Duration != want {
		t.Errorf("Probe() duration = %v, want %v", info.Duration, want)
	}
}

func TestAdapter_Unsupported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content []byte
	}{
		{"notes.txt", []byte("just some text, no audio here")},
		{"broken.wav", []byte("this is not really a wav file")},
		{"song.flac", []byte("fLaC\x00\x00\x00\x22")},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		if err := os.WriteFile(path, tt.content, 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := New(nil).Decode(t.Context(), path)
		if !errors.Is(err, audio.ErrUnsupportedFormat) {
			t.Errorf("Decode(%s) error = %v, want ErrUnsupportedFormat", tt.name, err)
		}
	}
}

func TestAdapter_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Decode(t.Context(), filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Decode() error = %v, want fs.ErrNotExist", err)
	}
}

// fakeDecoder hands out a prepared source and remembers it.
type fakeDecoder struct {
	src *audiotest.MockSource
	err error
}

func (d *fakeDecoder) Decode(io.Reader) (audio.Source, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.src, nil
}

func registryWith(d audio.Decoder) *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", d)
	return r
}

func TestAdapter_DecodeErrorReleasesHandle(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt frame")
	src := audiotest.NewSineSource(8000, 1, 10000, 440)
	src.ReadErr = boom
	src.FailAfter = 4096

	_, err := New(registryWith(&fakeDecoder{src: src})).DecodeReader(t.Context(), bytes.NewReader([]byte("RIFF\x00\x00\x00\x00WAVE")), "x.wav")
	if !errors.Is(err, audio.ErrDecode) || !errors.Is(err, boom) {
		t.Errorf("DecodeReader() error = %v, want DecodeError wrapping %v", err, boom)
	}
	if !src.Closed {
		t.Error("codec source not closed after a decode error")
	}
}

func TestAdapter_SuccessReleasesHandle(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 2, 500, 0.25)

	buf, err := New(registryWith(&fakeDecoder{src: src})).DecodeReader(t.Context(), bytes.NewReader(nil), "x.wav")
	if err != nil {
		t.Fatalf("DecodeReader() error = %v", err)
	}
	if buf.Frames() != 500 {
		t.Errorf("decoded %d frames, want 500", buf.Frames())
	}
	if !src.Closed {
		t.Error("codec source not closed after a successful decode")
	}
}

func TestAdapter_CodecRejects(t *testing.T) {
	t.Parallel()

	cause := errors.New("no audio track")
	_, err := New(registryWith(&fakeDecoder{err: cause})).DecodeReader(t.Context(), bytes.NewReader(nil), "x.wav")

	var ufe *audio.UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Format != "wav" || !errors.Is(err, cause) {
		t.Errorf("DecodeReader() error = %v, want UnsupportedFormatError(wav) wrapping cause", err)
	}
}

func TestAdapter_NoDecoderRegistered(t *testing.T) {
	t.Parallel()

	_, err := New(audio.NewRegistry()).DecodeReader(t.Context(), bytes.NewReader([]byte("OggS\x00\x02")), "x.ogg")
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("DecodeReader() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAdapter_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	src := audiotest.NewSilentSource(8000, 1, 100)
	_, err := New(registryWith(&fakeDecoder{src: src})).DecodeReader(ctx, bytes.NewReader(nil), "x.wav")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("DecodeReader() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, audio.ErrDecode) {
		t.Error("cancellation reported as a decode failure")
	}
	if !src.Closed {
		t.Error("codec source not closed after cancellation")
	}
}

func BenchmarkAdapter_Decode(b *testing.B) {
	dir := b.TempDir()
	buf, _ := audio.NewBuffer(audiotest.Sine(44100, 2, 44100, 440, 0.5), 44100, 2)
	path := filepath.Join(dir, "bench.wav")
	if err := wav.WriteFile(path, buf); err != nil {
		b.Fatal(err)
	}
	a := New(nil)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := a.Decode(context.Background(), path); err != nil {
			b.Fatal(err)
		}
	}
}
