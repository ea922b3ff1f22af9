// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/samplekit"
	"github.com/ik5/samplekit/decode"
	"github.com/ik5/samplekit/importer"
	"github.com/ik5/samplekit/internal/config"
	"github.com/ik5/samplekit/library"
	"github.com/ik5/samplekit/objectstore"
	"github.com/ik5/samplekit/packager"
	"github.com/ik5/samplekit/playback/otoplayer"
	"github.com/ik5/samplekit/preview"
	"github.com/ik5/samplekit/storage"
	"github.com/ik5/samplekit/waveform"
)

type app struct {
	conf config.Config
	ws   *storage.Workspace
	dec  *decode.Adapter
	out  io.Writer

	// openLibrary and openStore are replaced in tests.
	openLibrary func(ctx context.Context) (library.Repository, func(), error)
	openStore   func(ctx context.Context) (objectstore.Store, error)
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "info":
		return a.info(ctx, args)
	case "waveform":
		return a.waveform(ctx, args)
	case "render":
		return a.render(ctx, args)
	case "package":
		return a.pack(ctx, args)
	case "extract":
		return a.extract(ctx, args)
	case "import":
		return a.importFiles(ctx, args)
	case "library":
		return a.listLibrary(ctx, args)
	case "preview":
		return a.preview(ctx, args)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	fmt.Fprint(a.out, usage)
	return errors.Errorf("unknown command %v", cmd)
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func needArgs(fs *flag.FlagSet, n int) error {
	if fs.NArg() < n {
		fs.Usage()
		return errors.Errorf("%v needs %v argument(s)", fs.Name(), n)
	}
	return nil
}

func (a *app) info(ctx context.Context, args []string) error {
	fs := a.flagSet("info")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	for _, p := range fs.Args() {
		info, err := a.dec.Probe(ctx, p)
		if err != nil {
			return errors.Wrapf(err, "probe %v", p)
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%dHz\t%dch\t%v\n",
			p, info.Format, decode.MIMEType(p), info.SampleRate, info.Channels, info.Duration)
	}
	return nil
}

// waveform extracts every file concurrently; the extractor itself caps
// how many decodes run at once.
func (a *app) waveform(ctx context.Context, args []string) error {
	fs := a.flagSet("waveform")
	n := fs.Int("n", a.conf.WaveformBuckets, "values per file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	files := fs.Args()
	peaks := make([][]float32, len(files))
	ex := waveform.Default

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range files {
		g.Go(func() error {
			peaks[i] = ex.Extract(gctx, p, *n)
			if len(peaks[i]) == 0 {
				return errors.Errorf("no waveform for %v", p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, p := range files {
		vals := make([]string, len(peaks[i]))
		for j, v := range peaks[i] {
			vals[j] = fmt.Sprintf("%.3f", v)
		}
		fmt.Fprintf(a.out, "%s\t%s\n", p, strings.Join(vals, " "))
	}
	return nil
}

func (a *app) render(ctx context.Context, args []string) error {
	fs := a.flagSet("render")
	dst := fs.String("o", "", "output WAV path")
	sf := bindSettings(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	if *dst == "" {
		return errors.New("render needs -o")
	}

	s, err := sf.settings()
	if err != nil {
		return err
	}

	buf, err := samplekit.Export(ctx, fs.Arg(0), *dst, s)
	if err != nil {
		return errors.Wrapf(err, "render %v", fs.Arg(0))
	}
	fmt.Fprintf(a.out, "%s\t%v\n", *dst, buf.Duration())
	return nil
}

func (a *app) pack(ctx context.Context, args []string) error {
	fs := a.flagSet("package")
	volume := fs.Int("volume", packager.DefaultVolume, "volume 0..100")
	start := fs.Float64("start", 0, "start offset in seconds")
	sf := bindSettings(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	s, err := sf.settings()
	if err != nil {
		return err
	}

	src := fs.Arg(0)
	opts := packager.Options{
		Volume:     volume,
		Start:      *start,
		Parameters: packager.Parameters(filepath.Base(src), s),
	}
	if info, err := a.dec.Probe(ctx, src); err == nil {
		opts.Duration = &info.Duration
	} else {
		logger.Wf(ctx, "package %v without duration err %+v", src, err)
	}

	zipPath, err := packager.New(a.ws).CreateProjectZip(src, opts)
	if err != nil {
		return errors.Wrapf(err, "package %v", src)
	}
	fmt.Fprintln(a.out, zipPath)
	return nil
}

func (a *app) extract(_ context.Context, args []string) error {
	fs := a.flagSet("extract")
	dir := fs.String("d", ".", "destination directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	p, meta, err := packager.ExtractAudio(fs.Arg(0), *dir)
	if err != nil {
		return errors.Wrapf(err, "extract %v", fs.Arg(0))
	}

	s := meta.Settings()
	fmt.Fprintf(a.out, "%s\tvolume=%d\tduration=%.1fs\tsemitones=%d\ttempo=%g\n",
		p, meta.AudioFiles[0].Volume, meta.AudioFiles[0].Duration, s.Semitones, s.Tempo)
	return nil
}

func (a *app) importFiles(ctx context.Context, args []string) error {
	fs := a.flagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	repo, closeRepo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, err := a.store(ctx)
	if err != nil {
		return err
	}

	im := importer.New(a.ws, repo, importer.Options{Prober: a.dec, Store: store})

	// Imports run one at a time: archive names are allocated by scanning
	// the projects directory.
	for _, p := range fs.Args() {
		res, err := im.Import(ctx, p)
		if err != nil {
			return errors.Wrapf(err, "import %v", p)
		}
		fmt.Fprintf(a.out, "%s\t%s\t%v\t%s\n", res.Item.ID, res.Item.ArchiveLocator, res.Duration, res.Remote)
	}
	return nil
}

func (a *app) listLibrary(ctx context.Context, args []string) error {
	fs := a.flagSet("library")
	watch := fs.Bool("watch", false, "keep printing the list as it changes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	repo, closeRepo, err := a.repository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for items := range repo.ObserveAll(wctx) {
		for _, it := range items {
			fmt.Fprintf(a.out, "%s\t%s\n", it.ID, it.ArchiveLocator)
		}
		if !*watch {
			return nil
		}
		fmt.Fprintln(a.out, "--")
	}
	return nil
}

func (a *app) preview(ctx context.Context, args []string) error {
	fs := a.flagSet("preview")
	release := fs.Int("fade", a.conf.ReleaseMillis, "fade-out length in ms on interrupt")
	sf := bindSettings(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	s, err := sf.settings()
	if err != nil {
		return err
	}

	player, err := otoplayer.New(otoplayer.DefaultSampleRate, otoplayer.DefaultChannels, a.dec)
	if err != nil {
		return err
	}

	eng := preview.NewEngine(a.ws, player, a.dec, preview.Options{MaxPreview: a.conf.PreviewMax})
	if !eng.Start(ctx, fs.Arg(0), s) {
		return errors.Errorf("preview of %v already running", fs.Arg(0))
	}

	// Wait for the clip to end, or fade out on interrupt.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			<-eng.Stop(*release)
			return nil
		case <-tick.C:
			if eng.State() == preview.Idle {
				return nil
			}
		}
	}
}

// repository opens the Postgres library when DATABASE_URL is set and an
// in-memory one otherwise.
func (a *app) repository(ctx context.Context) (library.Repository, func(), error) {
	if a.openLibrary != nil {
		return a.openLibrary(ctx)
	}
	if a.conf.DatabaseURL == "" {
		logger.Tf(ctx, "library is in memory, set DATABASE_URL to keep it")
		return library.NewMemory(), func() {}, nil
	}

	pool, repo, err := library.Connect(ctx, a.conf.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open library")
	}
	return repo, pool.Close, nil
}

// store returns nil when no bucket is configured.
func (a *app) store(ctx context.Context) (objectstore.Store, error) {
	if a.openStore != nil {
		return a.openStore(ctx)
	}
	if !a.conf.S3.Enabled() {
		return nil, nil
	}

	s, err := objectstore.NewS3(ctx, a.conf.S3)
	if err != nil {
		return nil, errors.Wrapf(err, "open object store")
	}
	return s, nil
}
