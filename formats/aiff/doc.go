// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode uncompressed AIFF
// files at 8, 16, 24 or 32 bits, any channel count and any sample rate.
// Samples are big-endian and signed on disk and come out as float32 in
// [-1.0, 1.0]:
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not AIFF
//	}
//	defer src.Close()
//
// go-audio needs to seek between chunks; inputs that are not an
// io.ReadSeeker are read into memory first.
package aiff
