// SPDX-License-Identifier: EPL-2.0

// Package preview auditions a clip with effect parameters applied.
//
// The Engine renders the clip through the effect chain into a temporary WAV
// under the workspace cache, hands it to a Playback, and deletes it again
// when the preview stops or finishes. Starting the clip that is already
// rendering or playing does nothing; stopping an idle engine is safe.
//
// FadeOut is the teardown path for a Playback: a stepped volume ramp
// followed by a stop and release that never report errors.
package preview
