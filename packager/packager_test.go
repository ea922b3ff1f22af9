package packager

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/storage"
)

func newPackager(t *testing.T) (*Packager, *storage.Workspace) {
	t.Helper()

	ws, err := storage.NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	return New(ws), ws
}

func writeClip(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}
	return entries
}

func ptr[T any](v T) *T { return &v }

func TestCreateProjectZip_Contents(t *testing.T) {
	t.Parallel()

	p, ws := newPackager(t)
	audioBytes := []byte("RIFF....WAVEfmt not really audio")
	clip := writeClip(t, "clip.wav", audioBytes)

	path, err := p.CreateProjectZip(clip, Options{})
	if err != nil {
		t.Fatalf("CreateProjectZip: %v", err)
	}
	if want := filepath.Join(ws.Root, storage.ProjectsDir, "clip.zip"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	entries := readArchive(t, path)
	if len(entries) != 2 {
		t.Fatalf("archive has %d entries, want 2", len(entries))
	}
	if !bytes.Equal(entries["clip.wav"], audioBytes) {
		t.Error("audio entry differs from the source file")
	}

	raw := entries[ConfigName]
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("config.json: %v", err)
	}
	want := AudioFile{Name: "clip.wav", Volume: DefaultVolume}
	if len(meta.AudioFiles) != 1 || meta.AudioFiles[0] != want {
		t.Errorf("audioFiles = %+v, want [%+v]", meta.AudioFiles, want)
	}
	if !bytes.Contains(raw, []byte(`"parameters": []`)) {
		t.Errorf("config.json does not carry an empty parameter list:\n%s", raw)
	}

	if _, err := os.Stat(clip); err != nil {
		t.Errorf("source file was touched: %v", err)
	}
}

func TestCreateProjectZip_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		opts         Options
		wantVolume   int
		wantStart    float64
		wantDuration float64
	}{
		{"defaults", Options{}, 100, 0, 0},
		{"one millisecond", Options{Duration: ptr(time.Millisecond)}, 100, 0, 0},
		{"rounds down", Options{Duration: ptr(1549 * time.Millisecond)}, 100, 0, 1.5},
		{"rounds up", Options{Duration: ptr(1550 * time.Millisecond)}, 100, 0, 1.6},
		{"long", Options{Duration: ptr(61234 * time.Millisecond)}, 100, 0, 61.2},
		{"muted", Options{Volume: ptr(0)}, 0, 0, 0},
		{"too loud", Options{Volume: ptr(150)}, 100, 0, 0},
		{"negative volume", Options{Volume: ptr(-5)}, 0, 0, 0},
		{"start", Options{Start: 2.5, Volume: ptr(80)}, 80, 2.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, _ := newPackager(t)
			path, err := p.CreateProjectZip(writeClip(t, "take.mp3", []byte("ID3")), tt.opts)
			if err != nil {
				t.Fatalf("CreateProjectZip: %v", err)
			}
			meta, err := ExtractMetadata(path)
			if err != nil {
				t.Fatalf("ExtractMetadata: %v", err)
			}
			got := meta.AudioFiles[0]
			if got.Volume != tt.wantVolume || got.Start != tt.wantStart || got.Duration != tt.wantDuration {
				t.Errorf("got %+v, want volume=%d start=%v duration=%v",
					got, tt.wantVolume, tt.wantStart, tt.wantDuration)
			}
		})
	}
}

func TestCreateProjectZip_Collisions(t *testing.T) {
	t.Parallel()

	p, _ := newPackager(t)
	clip := writeClip(t, "loop.wav", []byte("data"))

	var names []string
	for range 3 {
		path, err := p.CreateProjectZip(clip, Options{})
		if err != nil {
			t.Fatalf("CreateProjectZip: %v", err)
		}
		names = append(names, filepath.Base(path))
	}
	want := []string{"loop.zip", "loop-1.zip", "loop-2.zip"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("archives = %v, want %v", names, want)
			break
		}
	}
}

func TestCreateProjectZip_MissingSource(t *testing.T) {
	t.Parallel()

	p, ws := newPackager(t)
	for _, path := range []string{
		filepath.Join(t.TempDir(), "gone.wav"),
		t.TempDir(),
	} {
		_, err := p.CreateProjectZip(path, Options{})
		var missing *audio.MissingSourceError
		if !errors.As(err, &missing) || !errors.Is(err, audio.ErrMissingSource) {
			t.Errorf("%s: err = %v, want MissingSourceError", path, err)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(ws.Root, storage.ProjectsDir))
	if len(entries) != 0 {
		t.Errorf("projects dir holds %d entries after failures", len(entries))
	}
}

func TestCreateProjectZip_UnsafeName(t *testing.T) {
	t.Parallel()

	p, _ := newPackager(t)
	clip := writeClip(t, strings.Repeat("a", storage.MaxStemLen+10)+".wav", []byte("x"))

	if _, err := p.CreateProjectZip(clip, Options{}); !errors.Is(err, audio.ErrPathSafety) {
		t.Errorf("err = %v, want ErrPathSafety", err)
	}
}

func TestWriteArchive_RemovesPartialFile(t *testing.T) {
	t.Parallel()

	clip := writeClip(t, "clip.wav", []byte("x"))
	info, err := os.Stat(clip)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "broken.zip")

	// Reading a directory as the audio source fails mid-archive.
	err = writeArchive(out, t.TempDir(), info, Metadata{})
	if !errors.Is(err, audio.ErrEncode) {
		t.Fatalf("err = %v, want ErrEncode", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("partial archive left behind: %v", err)
	}

	err = writeArchive(filepath.Join(t.TempDir(), "no", "such", "dir.zip"), clip, info, Metadata{})
	var encErr *audio.EncodeError
	if !errors.As(err, &encErr) {
		t.Errorf("err = %v, want EncodeError", err)
	}
}

func BenchmarkCreateProjectZip(b *testing.B) {
	ws, err := storage.NewWorkspace(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	p := New(ws)
	clip := filepath.Join(b.TempDir(), "bench.wav")
	if err := os.WriteFile(clip, make([]byte, 1<<20), 0o644); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := p.CreateProjectZip(clip, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
