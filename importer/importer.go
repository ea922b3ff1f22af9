// SPDX-License-Identifier: EPL-2.0

package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	oerrors "github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/decode"
	"github.com/ik5/samplekit/library"
	"github.com/ik5/samplekit/objectstore"
	"github.com/ik5/samplekit/packager"
	"github.com/ik5/samplekit/storage"
)

// Prober reports the format and length of a source.
type Prober interface {
	Probe(ctx context.Context, locator string) (decode.Info, error)
}

// Packager turns an audio file into a project archive.
type Packager interface {
	CreateProjectZip(audioPath string, opts packager.Options) (string, error)
}

type Options struct {
	// Prober defaults to a decode.Adapter over every registered format.
	Prober Prober
	// Packager defaults to packager.New on the importer's workspace.
	Packager Packager
	// Store, when set, receives a copy of every archive.
	Store objectstore.Store
	// Parameters are written into every new project.
	Parameters []packager.Parameter
}

// Result describes one finished import.
type Result struct {
	Item     library.Item
	Duration time.Duration
	// Remote is the published locator, empty when nothing was published.
	Remote string
}

// Importer brings outside audio into the workspace as library projects.
type Importer struct {
	ws   *storage.Workspace
	repo library.Repository
	opts Options
}

func New(ws *storage.Workspace, repo library.Repository, opts Options) *Importer {
	if opts.Prober == nil {
		opts.Prober = decode.New(nil)
	}
	if opts.Packager == nil {
		opts.Packager = packager.New(ws)
	}
	return &Importer{ws: ws, repo: repo, opts: opts}
}

// Import copies the file at locator into imports/audio under a free name,
// probes it, packages it into projects/ and records the archive in the
// library. The workspace copy is deleted once packaging is over, whether or
// not it succeeded; the caller's file is never touched.
//
// A source no decoder accepts fails with *audio.UnsupportedFormatError and
// leaves nothing behind. A source that is accepted but cannot be decoded to
// the end is still imported with a zero duration. Publishing is best effort:
// a failed upload is logged and Result.Remote stays empty.
func (im *Importer) Import(ctx context.Context, locator string) (Result, error) {
	src, err := decode.Path(locator)
	if err != nil {
		return Result{}, err
	}

	local, err := im.copyIn(src)
	if err != nil {
		return Result{}, err
	}
	defer im.discard(ctx, local)

	var duration time.Duration
	info, err := im.opts.Prober.Probe(ctx, local)
	switch {
	case err == nil:
		duration = info.Duration
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return Result{}, err
	case ctx.Err() != nil:
		return Result{}, ctx.Err()
	default:
		logger.Wf(ctx, "import %v duration unknown err %+v", src, err)
	}

	zipPath, err := im.opts.Packager.CreateProjectZip(local, packager.Options{
		Duration:   &duration,
		Parameters: im.opts.Parameters,
	})
	if err != nil {
		return Result{}, err
	}

	item := library.NewItem(zipPath)
	if err := im.repo.Upsert(ctx, item); err != nil {
		return Result{}, oerrors.Wrapf(err, "record %v", zipPath)
	}
	logger.Tf(ctx, "imported %v as %v id=%v duration=%v", src, zipPath, item.ID, duration)

	res := Result{Item: item, Duration: duration}
	if im.opts.Store != nil {
		remote, err := im.opts.Store.PutArchive(ctx, zipPath)
		if err != nil {
			logger.Wf(ctx, "publish %v err %+v", zipPath, err)
		} else {
			res.Remote = remote
		}
	}

	return res, nil
}

// copyIn copies src into the imports directory and returns the new path.
func (im *Importer) copyIn(src string) (_ string, err error) {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &audio.MissingSourceError{Path: src}
		}
		return "", oerrors.Wrapf(err, "open %v", src)
	}
	defer in.Close()

	if st, err := in.Stat(); err != nil || !st.Mode().IsRegular() {
		return "", &audio.MissingSourceError{Path: src}
	}

	dir, err := im.ws.Dir(storage.ImportsDir)
	if err != nil {
		return "", err
	}
	dst, err := im.ws.UniqueFile(dir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", oerrors.Wrapf(err, "create %v", dst)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = oerrors.Wrapf(cerr, "close %v", dst)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return "", oerrors.Wrapf(err, "copy %v", src)
	}

	return dst, nil
}

func (im *Importer) discard(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Wf(ctx, "remove import copy %v err %+v", path, err)
	}
}
