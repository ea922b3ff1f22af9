package preview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/effects"
)

type fakePlayer struct {
	mu         sync.Mutex
	playing    bool
	played     []string
	volumes    []float64
	stops      int
	releases   int
	onComplete func()

	playErr      error
	stopErr      error
	panicRelease bool
}

func (p *fakePlayer) Play(locator string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, locator)
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() error             { return nil }
func (p *fakePlayer) Resume() error            { return nil }
func (p *fakePlayer) Seek(time.Duration) error { return nil }
func (p *fakePlayer) Duration() time.Duration  { return time.Second }
func (p *fakePlayer) Position() time.Duration  { return 0 }

func (p *fakePlayer) OnComplete(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

func (p *fakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, v)
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.playing = false
	return p.stopErr
}

func (p *fakePlayer) Release() error {
	p.mu.Lock()
	p.releases++
	p.playing = false
	panicking := p.panicRelease
	p.mu.Unlock()
	if panicking {
		panic("released twice")
	}
	return nil
}

type playerState struct {
	playing  bool
	played   []string
	volumes  []float64
	stops    int
	releases int
}

func (p *fakePlayer) snapshot() playerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return playerState{
		playing:  p.playing,
		played:   append([]string(nil), p.played...),
		volumes:  append([]float64(nil), p.volumes...),
		stops:    p.stops,
		releases: p.releases,
	}
}

func (p *fakePlayer) finish() {
	p.mu.Lock()
	fn := p.onComplete
	p.playing = false
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type stubLoader struct {
	buf *audio.Buffer
	err error
}

func (l stubLoader) Decode(context.Context, string) (*audio.Buffer, error) { return l.buf, l.err }

// gatedRenderer holds every render until gate is closed.
type gatedRenderer struct {
	calls    atomic.Int32
	gate     chan struct{}
	returned chan struct{}
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{gate: make(chan struct{}), returned: make(chan struct{}, 8)}
}

func (g *gatedRenderer) render(ctx context.Context, req effects.Request) (*audio.Buffer, error) {
	g.calls.Add(1)
	defer func() { g.returned <- struct{}{} }()

	select {
	case <-g.gate:
		return req.Source, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var errBoom = errors.New("boom")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
