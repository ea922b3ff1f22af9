package aiff

import "errors"

var (
	// ErrNotAiffFile indicates the input is not an AIFF/AIFC file.
	ErrNotAiffFile = errors.New("not an AIFF file")

	ErrUnsupportedBitDepth = errors.New("unsupported AIFF bit depth")

	ErrUnsupportedAiffLayout = errors.New("unsupported AIFF layout")
)
