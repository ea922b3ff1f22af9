// SPDX-License-Identifier: EPL-2.0

// Package samplekit turns short audio clips into shareable sampler projects.
//
// The pipeline is a set of small packages; this one wires the common paths
// together.
//
// # Supported Formats
//
// Sources are decoded by package decode, which sniffs the container and
// picks one of the codec packages:
//   - WAV (PCM 8/16/24/32-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//
// # Quick Start
//
// Render a clip an octave up with a short release and save it:
//
//	s := effects.Settings{
//		Semitones: 12,
//		ADSR:      effects.ADSR{Sustain: 1, Release: 200 * time.Millisecond},
//	}
//	buf, err := samplekit.Export(ctx, "kick.wav", "kick-up.wav", s)
//
// # Pipeline
//
// A source locator is decoded into an audio.Buffer, transformed by the
// effect chain (EQ, reverb, pitch, tempo, envelope) and then either
// summarized for display by package waveform or written as WAV and zipped
// into a project by package packager. Paths come from a storage.Workspace.
//
//	dec := decode.New(nil)
//	buf, _ := dec.Decode(ctx, "loop.ogg")
//	peaks, _ := waveform.Summarize(buf, 100)
//	out, _ := effects.Render(ctx, settings.Request(buf, effects.ModeFinal))
//
// # Preview
//
// Package preview drives live auditioning: it renders a short preview in the
// background, plays it through a preview.Playback (playback/otoplayer in
// production) and fades it out on stop.
//
// # Projects and the Library
//
// Package importer copies a picked file into the workspace, packages it and
// records it in a library.Repository, optionally publishing the archive to an
// S3-compatible bucket through package objectstore.
//
// See the individual packages for more detailed documentation.
package samplekit
