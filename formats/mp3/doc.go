// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always emits 16-bit stereo, so the returned audio.Source reports two
// channels even for mono files; fold it with audio.NewMonoMixer when one
// channel is wanted. Samples are normalized to float32 in [-1.0, 1.0].
//
//	src, err := mp3.Decoder{}.Decode(file)
//	defer src.Close()
//
// A stream that ends mid-frame is truncated to its last whole frame.
package mp3
