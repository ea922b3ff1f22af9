// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ik5/samplekit/audio"
	"github.com/ik5/samplekit/utils"
)

// HeaderSize is the length of the canonical RIFF/fmt/data header.
const HeaderSize = 44

// chunkSize is how many samples are converted per Write call.
const chunkSize = 8192

// header builds the canonical 44-byte header for 16-bit PCM.
func header(sampleRate, channels, numSamples int) []byte {
	const bitsPerSample = 16

	blockAlign := uint16(channels * bitsPerSample / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)
	dataSize := uint32(numSamples * 2)

	h := make([]byte, HeaderSize)

	// RIFF header (12 bytes)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(h[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)

	// data chunk header (8 bytes)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)

	return h
}

// WriteWAV16 writes a mono 16-bit PCM WAV at sampleRate. samples must be int16 PCM.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16) error {
	if _, err := w.Write(header(sampleRate, 1, len(samples))); err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)
	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		buf = buf[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:j*2+2], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

// Encode writes buf as a canonical 16-bit PCM WAV. Samples are clamped to
// [-1,1] and rounded, so the output is exactly HeaderSize+2*len(Samples)
// bytes. Write failures are returned as *audio.EncodeError.
func Encode(w io.Writer, buf *audio.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	if _, err := w.Write(header(buf.SampleRate, buf.Channels, len(buf.Samples))); err != nil {
		return &audio.EncodeError{Err: err}
	}

	out := make([]byte, min(len(buf.Samples), chunkSize)*2)
	for i := 0; i < len(buf.Samples); i += chunkSize {
		chunk := buf.Samples[i:min(i+chunkSize, len(buf.Samples))]
		out = out[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(out[j*2:j*2+2], uint16(utils.Float32ToInt16(s)))
		}

		if _, err := w.Write(out); err != nil {
			return &audio.EncodeError{Err: err}
		}
	}

	return nil
}

// WriteFile encodes buf into a new file at path, replacing any existing file.
func WriteFile(path string, buf *audio.Buffer) (err error) {
	if err := buf.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &audio.EncodeError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &audio.EncodeError{Path: path, Err: cerr}
		}
	}()

	bw := bufio.NewWriterSize(f, 64*1024)
	if err := Encode(bw, buf); err != nil {
		var ee *audio.EncodeError
		if errors.As(err, &ee) {
			ee.Path = path
		}
		return err
	}
	if err := bw.Flush(); err != nil {
		return &audio.EncodeError{Path: path, Err: err}
	}

	return nil
}
