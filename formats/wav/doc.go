// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// Decoding is done with github.com/go-audio/wav and accepts integer PCM at
// 8, 16, 24 and 32 bits, including WAVE_FORMAT_EXTENSIBLE files. 8-bit
// data is unsigned on disk and is re-centered before normalization.
//
//	file, _ := os.Open("audio.wav")
//	source, err := wav.Decoder{}.Decode(file)
//	defer source.Close()
//
// The decoder returns an audio.Source that provides samples as float32
// values in the range [-1.0, 1.0].
//
// # Writing WAV Files
//
// Encode and WriteFile serialize an audio.Buffer as canonical
// little-endian 16-bit PCM with a 44-byte header. Samples are clamped to
// [-1,1] and rounded to the nearest step of 1/32767:
//
//	err := wav.WriteFile("clip.wav", buf)
//
// A file written this way is always HeaderSize + 2*len(buf.Samples) bytes.
// WriteWAV16 remains for callers that already hold mono int16 PCM.
//
// # Error Handling
//
// Decode reports ErrNotWavFile, ErrUnsupportedEncoding,
// ErrUnsupportedBitDepth, ErrUnsupportedWavLayout or ErrUnsupportedWavChunks.
// Encode and WriteFile report write failures as *audio.EncodeError.
package wav
