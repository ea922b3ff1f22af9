// SPDX-License-Identifier: EPL-2.0

package otoplayer

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/ossrs/go-oryx-lib/errors"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/decode"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2

	bytesPerSample = 4 // oto.FormatFloat32LE
	pollInterval   = 10 * time.Millisecond
)

// Loader decodes a locator. *decode.Adapter satisfies it.
type Loader interface {
	Decode(ctx context.Context, locator string) (*audio.Buffer, error)
}

// Player plays one clip at a time through the process-wide oto context.
// It satisfies preview.Playback.
type Player struct {
	ctx      *oto.Context
	load     Loader
	rate     int
	channels int

	mu         sync.Mutex
	cur        oto.Player
	reader     *bytes.Reader
	total      time.Duration
	volume     float64
	paused     bool
	onComplete func()
	watchDone  chan struct{}
}

// New opens the output device. oto allows a single context per process, so
// call it once and share the Player.
func New(sampleRate, channels int, load Loader) (*Player, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if load == nil {
		load = decode.New(nil)
	}

	ctx, ready, err := oto.NewContext(sampleRate, channels, oto.FormatFloat32LE)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %vHz/%vch", sampleRate, channels)
	}
	<-ready

	return &Player{ctx: ctx, load: load, rate: sampleRate, channels: channels, volume: 1}, nil
}

// Play decodes locator, converts it to the device format and starts it,
// replacing whatever was loaded.
func (p *Player) Play(locator string) error {
	buf, err := p.load.Decode(context.Background(), locator)
	if err != nil {
		return errors.Wrapf(err, "load %v", locator)
	}
	buf, err = Conform(buf, p.rate, p.channels)
	if err != nil {
		return errors.Wrapf(err, "convert %v", locator)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()

	p.reader = bytes.NewReader(Float32LE(buf.Samples))
	p.total = buf.Duration()
	p.cur = p.ctx.NewPlayer(p.reader)
	p.cur.SetVolume(p.volume)
	p.paused = false
	p.cur.Play()

	p.watchDone = make(chan struct{})
	go p.watch(p.cur, p.watchDone)

	return nil
}

// watch fires the completion callback once cur drains on its own.
func (p *Player) watch(cur oto.Player, done chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		finished := p.cur == cur && !p.paused && !cur.IsPlaying() &&
			p.reader.Len() == 0 && cur.UnplayedBufferSize() == 0
		fn := p.onComplete
		p.mu.Unlock()

		if finished {
			if fn != nil {
				fn()
			}
			return
		}
	}
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur != nil && p.cur.IsPlaying() {
		p.cur.Pause()
		p.paused = true
	}
	return nil
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur != nil && !p.cur.IsPlaying() {
		p.paused = false
		p.cur.Play()
	}
	return nil
}

// Stop pauses output and keeps the clip loaded until Release.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur == nil {
		return nil
	}
	p.paused = true
	p.cur.Pause()
	return p.cur.Err()
}

func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur == nil {
		return nil
	}
	seeker, ok := p.cur.(io.Seeker)
	if !ok {
		return errors.New("player cannot seek")
	}
	frame := int64(pos.Seconds() * float64(p.rate))
	offset := frame * int64(p.channels*bytesPerSample)
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek %v", pos)
	}
	return nil
}

func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Position is derived from what oto has pulled minus what it still buffers.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur == nil {
		return 0
	}
	played := p.reader.Size() - int64(p.reader.Len()) - int64(p.cur.UnplayedBufferSize())
	frames := max(played, 0) / int64(p.channels*bytesPerSample)
	return time.Duration(frames) * time.Second / time.Duration(p.rate)
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur != nil && p.cur.IsPlaying()
}

func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = math.Min(math.Max(v, 0), 1)
	if p.cur != nil {
		p.cur.SetVolume(p.volume)
	}
}

func (p *Player) OnComplete(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// Release closes the loaded clip. The volume resets for the next Play.
func (p *Player) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.closeLocked()
	p.volume = 1
	return err
}

func (p *Player) closeLocked() error {
	if p.cur == nil {
		return nil
	}
	close(p.watchDone)
	err := p.cur.Close()
	p.cur = nil
	p.reader = nil
	p.total = 0
	if err != nil {
		return errors.Wrapf(err, "close player")
	}
	return nil
}

// Conform resamples buf to rate and maps its channels onto channels:
// mono is duplicated, anything else is folded to mono first.
func Conform(buf *audio.Buffer, rate, channels int) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := buf
	if out.Channels != channels && out.Channels != 1 {
		mono, err := audio.Downmix(out)
		if err != nil {
			return nil, err
		}
		out = mono
	}

	if out.SampleRate != rate && out.Frames() > 0 {
		r := audio.NewResampler(out.Source(), rate)
		resampled, err := audio.ReadAll(context.Background(), r)
		if err != nil {
			return nil, err
		}
		out = resampled
	}

	if out.Channels == 1 && channels > 1 {
		spread := make([]float32, out.Frames()*channels)
		for f, s := range out.Samples {
			for c := range channels {
				spread[f*channels+c] = s
			}
		}
		out = &audio.Buffer{Samples: spread, SampleRate: out.SampleRate, Channels: channels}
	}

	return out, nil
}

// Float32LE packs samples in oto's float32 little-endian layout.
func Float32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(s))
	}
	return out
}
