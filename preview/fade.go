// SPDX-License-Identifier: EPL-2.0

package preview

import "time"

const (
	DefaultFadeSteps = 20
	MinFadeStep      = 5 * time.Millisecond
)

type FadeOptions struct {
	// Steps defaults to DefaultFadeSteps.
	Steps int
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (o FadeOptions) withDefaults() FadeOptions {
	if o.Steps <= 0 {
		o.Steps = DefaultFadeSteps
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// StepDelay is the pause between volume steps for a release time.
func (o FadeOptions) StepDelay(releaseMillis int) time.Duration {
	o = o.withDefaults()
	return max(time.Duration(releaseMillis)*time.Millisecond/time.Duration(o.Steps), MinFadeStep)
}

// FadeOut ramps p down to silence over releaseMillis, then stops and
// releases it and calls done. A non-positive releaseMillis tears p down
// synchronously. The returned channel closes after done has run.
// Errors and panics from p are swallowed.
func FadeOut(p Playback, releaseMillis int, opts FadeOptions, done func()) <-chan struct{} {
	finished := make(chan struct{})
	finish := func() {
		defer close(finished)
		quietly(func() {
			if p.IsPlaying() {
				_ = p.Stop()
			}
		})
		quietly(func() { _ = p.Release() })
		if done != nil {
			done()
		}
	}

	if releaseMillis <= 0 {
		finish()
		return finished
	}

	opts = opts.withDefaults()
	delay := opts.StepDelay(releaseMillis)
	go func() {
		for i := opts.Steps; i > 0; i-- {
			level := float64(i) / float64(opts.Steps)
			quietly(func() { p.SetVolume(level) })
			opts.Sleep(delay)
		}
		quietly(func() { p.SetVolume(0) })
		finish()
	}()

	return finished
}

// quietly runs a best-effort teardown call, discarding any panic.
func quietly(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
