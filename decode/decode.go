// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/formats/aiff"
	"github.com/ik5/samplekit/formats/mp3"
	"github.com/ik5/samplekit/formats/vorbis"
	"github.com/ik5/samplekit/formats/wav"
)

// DefaultRegistry returns a registry holding every built-in codec variant.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	return r
}

// Adapter turns a source locator into a normalized audio.Buffer by picking a
// decoder from its registry.
type Adapter struct {
	registry *audio.Registry
}

// New returns an Adapter over registry. A nil registry means DefaultRegistry.
func New(registry *audio.Registry) *Adapter {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Adapter{registry: registry}
}

// Info is what Probe reports about a source.
type Info struct {
	Format     string
	SampleRate int
	Channels   int
	Frames     int
	Duration   time.Duration
}

// Path resolves a locator (a plain path or a file:// URI) to a file path.
func Path(locator string) (string, error) {
	if !strings.Contains(locator, "://") {
		return locator, nil
	}

	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse locator %q: %w", locator, err)
	}
	if u.Scheme != "file" {
		return "", &audio.UnsupportedFormatError{Format: u.Scheme + " locator"}
	}
	return filepath.FromSlash(u.Path), nil
}

// Decode reads the whole source at locator. The file and codec handles are
// released before it returns, on every path.
//
// A stream no decoder accepts yields *audio.UnsupportedFormatError; a
// failure after the decoder accepted the stream yields *audio.DecodeError.
// Cancelling ctx aborts between read blocks with the context error.
func (a *Adapter) Decode(ctx context.Context, locator string) (*audio.Buffer, error) {
	path, err := Path(locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	return a.DecodeReader(ctx, f, filepath.Base(path))
}

// DecodeReader is Decode for an already open stream. name is only used as
// an extension hint when the content cannot be sniffed.
func (a *Adapter) DecodeReader(ctx context.Context, r io.ReadSeeker, name string) (*audio.Buffer, error) {
	key, err := negotiate(r, name)
	if err != nil {
		return nil, err
	}

	dec, ok := a.registry.Get(key)
	if !ok {
		return nil, &audio.UnsupportedFormatError{Format: key}
	}

	src, err := dec.Decode(r)
	if err != nil {
		return nil, &audio.UnsupportedFormatError{Format: key, Err: err}
	}
	defer src.Close()

	buf, err := audio.ReadAll(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &audio.DecodeError{Format: key, Err: err}
	}

	return buf, nil
}

// Probe decodes locator and reports its format and length without keeping
// the samples.
func (a *Adapter) Probe(ctx context.Context, locator string) (Info, error) {
	path, err := Path(locator)
	if err != nil {
		return Info{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	key, err := negotiate(f, filepath.Base(path))
	if err != nil {
		return Info{}, err
	}

	buf, err := a.DecodeReader(ctx, f, filepath.Base(path))
	if err != nil {
		return Info{}, err
	}

	return Info{
		Format:     key,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Frames:     buf.Frames(),
		Duration:   buf.Duration(),
	}, nil
}

// negotiate sniffs the leading bytes of r, falling back to the extension of
// name, and rewinds r to the start.
func negotiate(r io.ReadSeeker, name string) (string, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", &audio.DecodeError{Format: "unknown", Err: err}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", &audio.DecodeError{Format: "unknown", Err: err}
	}

	if key := Sniff(header[:n]); key != "" {
		return key, nil
	}
	if key := FormatFromExt(name); key != "" {
		return key, nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		ext = "unknown"
	}
	return "", &audio.UnsupportedFormatError{Format: ext}
}
