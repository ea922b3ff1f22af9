// SPDX-License-Identifier: EPL-2.0

package preview

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/effects"
	"github.com/ik5/samplekit/formats/wav"
	"github.com/ik5/samplekit/storage"
)

type State int

const (
	Idle State = iota
	Rendering
	Playing
	Stopping
)

func (s State) String() string {
	switch s {
	case Rendering:
		return "rendering"
	case Playing:
		return "playing"
	case Stopping:
		return "stopping"
	}
	return "idle"
}

// Params shape one preview.
type Params = effects.Settings

// Loader decodes a source. *decode.Adapter satisfies it.
type Loader interface {
	Decode(ctx context.Context, locator string) (*audio.Buffer, error)
}

// Renderer runs the effect chain. effects.Render is the default.
type Renderer func(ctx context.Context, req effects.Request) (*audio.Buffer, error)

type Options struct {
	Render     Renderer
	Fade       FadeOptions
	MaxPreview time.Duration
}

// Engine renders a source with preview parameters into a temporary WAV in
// the workspace cache and plays it. It moves Idle → Rendering → Playing →
// Stopping → Idle; every transition happens under mu.
type Engine struct {
	ws     *storage.Workspace
	player Playback
	load   Loader
	opts   Options

	mu     sync.Mutex
	state  State
	source string
	path   string
	// gen invalidates renders and completions that belong to an earlier
	// Start once Stop or a newer Start has run.
	gen    uint64
	cancel context.CancelFunc
	fading <-chan struct{}
	ended  bool
}

func NewEngine(ws *storage.Workspace, player Playback, load Loader, opts Options) *Engine {
	if opts.Render == nil {
		opts.Render = effects.Render
	}
	return &Engine{ws: ws, player: player, load: load, opts: opts}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Source is the locator being previewed, or "" when idle.
func (e *Engine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Start begins a preview of source. It returns false without doing anything
// when source is already rendering or playing. A preview of another source
// is stopped first; a fade in progress is waited for.
func (e *Engine) Start(ctx context.Context, source string, p Params) bool {
	e.mu.Lock()
	for e.state == Stopping {
		fading := e.fading
		e.mu.Unlock()
		select {
		case <-fading:
		case <-ctx.Done():
			return false
		}
		e.mu.Lock()
	}
	defer e.mu.Unlock()

	if e.state != Idle {
		if e.source == source {
			return false
		}
		logger.Tf(ctx, "preview switch %v -> %v", e.source, source)
		e.teardownLocked(0)
	}

	rctx, cancel := context.WithCancel(ctx)
	e.gen++
	e.state = Rendering
	e.source = source
	e.cancel = cancel

	go e.run(rctx, e.gen, source, p)
	return true
}

func (e *Engine) run(ctx context.Context, gen uint64, source string, p Params) {
	path, err := e.render(ctx, source, p)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		removeQuietly(ctx, path)
		return
	}
	if err != nil {
		logger.Ef(ctx, "preview %v render err %+v", source, err)
		e.resetLocked()
		return
	}

	e.path = path
	e.player.OnComplete(func() { go e.complete(gen) })

	// Play may block on the device; State and Stop must not wait for it.
	e.mu.Unlock()
	err = e.player.Play(path)
	e.mu.Lock()

	if gen != e.gen {
		// Torn down while still Rendering, so the player was left alone.
		if err == nil {
			FadeOut(e.player, 0, e.opts.Fade, nil)
		}
		removeQuietly(ctx, path)
		return
	}
	if err != nil {
		logger.Ef(ctx, "preview %v play err %+v", source, err)
		removeQuietly(ctx, path)
		e.resetLocked()
		return
	}

	e.state = Playing
	logger.Tf(ctx, "preview %v playing %v", source, path)
	if e.ended {
		e.teardownLocked(0)
	}
}

func (e *Engine) render(ctx context.Context, source string, p Params) (string, error) {
	buf, err := e.load.Decode(ctx, source)
	if err != nil {
		return "", errors.Wrapf(err, "decode %v", source)
	}

	req := p.Request(buf, effects.ModePreview)
	req.MaxPreview = e.opts.MaxPreview

	out, err := e.opts.Render(ctx, req)
	if err != nil {
		return "", errors.Wrapf(err, "render %v", source)
	}

	dir, err := e.ws.Dir(storage.CacheDir)
	if err != nil {
		return "", errors.Wrapf(err, "cache dir")
	}
	path := filepath.Join(dir, "preview-"+uuid.NewString()+".wav")
	if err := wav.WriteFile(path, out); err != nil {
		removeQuietly(ctx, path)
		return "", err
	}

	return path, nil
}

// Stop ends the current preview. It is a no-op when idle. With a positive
// releaseMillis playback fades out first; the returned channel closes once
// the engine is back to Idle.
func (e *Engine) Stop(releaseMillis int) <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.teardownLocked(releaseMillis)
}

func (e *Engine) teardownLocked(releaseMillis int) <-chan struct{} {
	switch e.state {
	case Idle:
		return closed()
	case Stopping:
		return e.fading
	case Rendering:
		// run notices the new generation and discards its output.
		e.gen++
		e.cancel()
		e.resetLocked()
		return closed()
	}

	e.gen++
	gen := e.gen
	path := e.path
	e.cancel()

	if releaseMillis <= 0 {
		FadeOut(e.player, 0, e.opts.Fade, nil)
		removeQuietly(context.Background(), path)
		e.resetLocked()
		return closed()
	}

	e.state = Stopping
	e.fading = FadeOut(e.player, releaseMillis, e.opts.Fade, func() {
		removeQuietly(context.Background(), path)

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.gen == gen {
			e.resetLocked()
		}
	})
	return e.fading
}

// complete handles the end of playback.
func (e *Engine) complete(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	switch e.state {
	case Rendering:
		// Play has not returned yet; run tears down once it does.
		e.ended = true
	case Playing:
		e.teardownLocked(0)
	}
}

func (e *Engine) resetLocked() {
	e.state = Idle
	e.source = ""
	e.path = ""
	e.ended = false
	e.fading = nil
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func removeQuietly(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Wf(ctx, "remove preview %v err %+v", path, err)
	}
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
