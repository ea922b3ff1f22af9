// SPDX-License-Identifier: EPL-2.0

// Package otoplayer is a preview.Playback backed by hajimehoshi/oto.
//
// Clips are decoded fully, converted to the device rate and channel layout,
// and streamed to oto as float32 PCM from memory so Seek and Position stay
// exact. Only one oto context may exist per process.
package otoplayer
