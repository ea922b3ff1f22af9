// SPDX-License-Identifier: EPL-2.0

package packager

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/ik5/samplekit/audio"
)

func openArchive(zipPath string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(zipPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &audio.MissingSourceError{Path: zipPath}
	}
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	return zr, nil
}

func readMetadata(zr *zip.ReadCloser) (Metadata, error) {
	var meta Metadata

	f := findEntry(zr, ConfigName)
	if f == nil {
		return meta, ErrNoConfig
	}
	rc, err := f.Open()
	if err != nil {
		return meta, fmt.Errorf("open %s: %w", ConfigName, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(&meta); err != nil {
		return meta, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := meta.validate(); err != nil {
		return meta, err
	}
	return meta, nil
}

func findEntry(zr *zip.ReadCloser, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ExtractMetadata reads config.json out of a project archive.
func ExtractMetadata(zipPath string) (Metadata, error) {
	zr, err := openArchive(zipPath)
	if err != nil {
		return Metadata{}, err
	}
	defer zr.Close()

	return readMetadata(zr)
}

// ExtractAudio copies the archive's first audio file into destDir and
// returns its path together with the metadata. An existing file with the
// same name is replaced.
func ExtractAudio(zipPath, destDir string) (string, Metadata, error) {
	zr, err := openArchive(zipPath)
	if err != nil {
		return "", Metadata{}, err
	}
	defer zr.Close()

	meta, err := readMetadata(zr)
	if err != nil {
		return "", meta, err
	}

	name := meta.AudioFiles[0].Name
	if name != filepath.Base(name) || name == "." || name == ".." || name == ConfigName {
		return "", meta, &audio.PathSafetyError{Path: name, Reason: "archive entry is not a plain file name"}
	}

	f := findEntry(zr, name)
	if f == nil {
		return "", meta, fmt.Errorf("%w: %s", ErrNoAudioEntry, name)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", meta, fmt.Errorf("create %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, name)
	if err := copyEntry(f, dest); err != nil {
		_ = os.Remove(dest)
		return "", meta, err
	}

	return dest, meta, nil
}

func copyEntry(f *zip.File, dest string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return &audio.EncodeError{Path: dest, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &audio.EncodeError{Path: dest, Err: cerr}
		}
	}()

	if _, err := io.Copy(out, rc); err != nil {
		return &audio.EncodeError{Path: dest, Err: err}
	}
	return nil
}
