// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with github.com/jfreymuth/oggvorbis.
//
// The codec already produces interleaved float32 in [-1.0, 1.0], so the
// returned audio.Source decodes straight into the caller's buffer. Any
// channel count the stream declares is passed through.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//	defer src.Close()
package vorbis
