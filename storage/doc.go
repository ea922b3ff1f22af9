// SPDX-License-Identifier: EPL-2.0

// Package storage lays out the on-disk workspace and hands out file names
// that are safe to create in it.
//
// A Workspace is passed explicitly to every component that touches disk.
// Under its root it keeps:
//
//	imports/audio/  inbound files copied in by the importer
//	recordings/     microphone captures
//	projects/       finished .zip archives
//	cache/          transient preview renders
//
// Names from users or other apps go through SanitizeStem before they become
// paths, and every allocation is checked to resolve inside the root.
// Violations are reported as *audio.PathSafetyError.
package storage
