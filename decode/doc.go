// SPDX-License-Identifier: EPL-2.0

// Package decode is the boundary between files on disk and the in-memory
// audio.Buffer every effect works on.
//
// An Adapter negotiates the container from the first bytes of the stream
// (falling back to the file extension), picks the matching audio.Decoder
// from its registry and drains it into a Buffer of float32 samples in
// [-1.0, 1.0]:
//
//	a := decode.New(decode.DefaultRegistry())
//	buf, err := a.Decode(ctx, "file:///sdcard/clip.wav")
//	switch {
//	case errors.Is(err, audio.ErrUnsupportedFormat):
//	    // unknown container, or the codec refused the stream
//	case errors.Is(err, audio.ErrDecode):
//	    // the stream broke part way through
//	}
//
// The file and codec handles are closed before Decode returns, whether it
// succeeds, fails or is cancelled through ctx.
package decode
