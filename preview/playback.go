// SPDX-License-Identifier: EPL-2.0

package preview

import "time"

// Playback is the audio output the engine drives. Release frees the loaded
// clip; Play may be called again afterwards with a new locator.
type Playback interface {
	Play(locator string) error
	Pause() error
	Resume() error
	Stop() error
	Seek(pos time.Duration) error

	Duration() time.Duration
	Position() time.Duration
	IsPlaying() bool

	// SetVolume takes a linear gain in [0,1].
	SetVolume(v float64)
	Release() error

	// OnComplete registers fn to run once the loaded clip plays to its end.
	OnComplete(fn func())
}
