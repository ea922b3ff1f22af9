// SPDX-License-Identifier: EPL-2.0

package packager

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/storage"
)

const DefaultVolume = 100

var (
	ErrNoConfig      = errors.New("config.json not found in archive")
	ErrInvalidConfig = errors.New("invalid config.json")
	ErrNoAudioEntry  = errors.New("audio entry not found in archive")
)

type Options struct {
	// Duration is stored rounded to 0.1 s; nil stores 0.
	Duration *time.Duration
	// Volume in 0..100; nil means DefaultVolume.
	Volume *int
	// Start offset in seconds.
	Start      float64
	Parameters []Parameter
}

func (o Options) volume() int {
	if o.Volume == nil {
		return DefaultVolume
	}
	return min(max(*o.Volume, 0), 100)
}

// Packager bundles audio files into project archives under a workspace.
type Packager struct {
	ws *storage.Workspace
}

func New(ws *storage.Workspace) *Packager {
	return &Packager{ws: ws}
}

// CreateProjectZip writes a project archive holding audioPath verbatim and a
// config.json describing it, and returns the archive path. The archive name
// is allocated from the audio file's base name. A failed write removes the
// partial archive.
func (p *Packager) CreateProjectZip(audioPath string, opts Options) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", &audio.MissingSourceError{Path: audioPath}
	}

	name := filepath.Base(audioPath)
	loc, err := p.ws.ProjectFile(strings.TrimSuffix(name, filepath.Ext(name)))
	if err != nil {
		return "", err
	}

	var duration float64
	if opts.Duration != nil {
		duration = RoundDuration(*opts.Duration)
	}
	params := opts.Parameters
	if params == nil {
		params = []Parameter{}
	}
	meta := Metadata{
		AudioFiles: []AudioFile{{
			Name:     name,
			Volume:   opts.volume(),
			Start:    opts.Start,
			Duration: duration,
		}},
		Parameters: params,
	}

	if err := writeArchive(loc.Path, audioPath, info, meta); err != nil {
		return "", err
	}

	return loc.Path, nil
}

func writeArchive(path, audioPath string, info fs.FileInfo, meta Metadata) (err error) {
	src, err := os.Open(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &audio.MissingSourceError{Path: audioPath}
		}
		return &audio.EncodeError{Path: path, Err: err}
	}
	defer src.Close()

	// O_EXCL keeps a concurrent allocation of the same name from being
	// overwritten.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &audio.EncodeError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &audio.EncodeError{Path: path, Err: cerr}
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	zw := zip.NewWriter(bw)

	fail := func(what string, e error) error {
		return &audio.EncodeError{Path: path, Err: fmt.Errorf("%s: %w", what, e)}
	}

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     info.Name(),
		Method:   zip.Deflate,
		Modified: info.ModTime(),
	})
	if err != nil {
		return fail("add audio entry", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fail("copy audio", err)
	}

	w, err = zw.CreateHeader(&zip.FileHeader{
		Name:     ConfigName,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fail("add config", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fail("write config", err)
	}

	if err := zw.Close(); err != nil {
		return fail("finish archive", err)
	}
	if err := bw.Flush(); err != nil {
		return fail("flush archive", err)
	}

	return nil
}
