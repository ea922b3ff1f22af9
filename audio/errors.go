// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	ErrInvalidBuffer  = errors.New("invalid audio buffer")

	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
	ErrEncode            = errors.New("audio encode failed")
	ErrPathSafety        = errors.New("unsafe storage path")
	ErrMissingSource     = errors.New("missing source file")
)

// UnsupportedFormatError is returned when no decoder can handle the input:
// unknown container, no audio track, or a codec that rejects the stream.
type UnsupportedFormatError struct {
	Format string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unsupported audio format %q", e.Format)
	}
	return fmt.Sprintf("unsupported audio format %q: %v", e.Format, e.Err)
}

func (e *UnsupportedFormatError) Unwrap() error        { return e.Err }
func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// DecodeError is a demux or codec failure after the stream was accepted.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error        { return e.Err }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// EncodeError is an I/O failure while writing WAV or archive bytes.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("encode: %v", e.Err)
	}
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error        { return e.Err }
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// PathSafetyError reports an allocation that would escape the workspace,
// produce a hidden name, or exceed the stem length limit.
type PathSafetyError struct {
	Path   string
	Reason string
}

func (e *PathSafetyError) Error() string {
	return fmt.Sprintf("unsafe path %q: %s", e.Path, e.Reason)
}

func (e *PathSafetyError) Is(target error) bool { return target == ErrPathSafety }

// MissingSourceError is returned when packaging is requested for a file that
// does not exist or is not a regular file.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("audio file does not exist: %s", e.Path)
}

func (e *MissingSourceError) Is(target error) bool { return target == ErrMissingSource }
