// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format describes one codec family the adapter can negotiate.
type Format struct {
	Key        string
	MIME       string
	Extensions []string
}

// SupportedFormats lists the formats DefaultRegistry can decode.
var SupportedFormats = []Format{
	{Key: "wav", MIME: "audio/wav", Extensions: []string{".wav", ".wave"}},
	{Key: "aiff", MIME: "audio/aiff", Extensions: []string{".aif", ".aiff", ".aifc"}},
	{Key: "ogg", MIME: "audio/ogg", Extensions: []string{".ogg", ".oga"}},
	{Key: "mp3", MIME: "audio/mpeg", Extensions: []string{".mp3"}},
}

// sniffLen is how many leading bytes Sniff needs.
const sniffLen = 12

// Sniff identifies a container from its leading bytes. It returns "" when
// nothing matches.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return "aiff"
	case bytes.HasPrefix(header, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(header, []byte("ID3")):
		return "mp3"
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync.
		return "mp3"
	}
	return ""
}

// FormatFromExt maps a file name to a format key by extension.
func FormatFromExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range SupportedFormats {
		for _, e := range f.Extensions {
			if e == ext {
				return f.Key
			}
		}
	}
	return ""
}

// MIMEType returns the MIME type for a file name, or
// application/octet-stream when the extension is unknown.
func MIMEType(name string) string {
	key := FormatFromExt(name)
	for _, f := range SupportedFormats {
		if f.Key == key {
			return f.MIME
		}
	}
	return "application/octet-stream"
}
