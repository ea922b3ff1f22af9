// SPDX-License-Identifier: EPL-2.0

// Package packager bundles an audio file and its config.json descriptor into
// a project archive, and reads projects back.
//
// An archive holds exactly two entries: the audio file under its original
// name and config.json:
//
//	{
//	  "audioFiles": [{"name": "clip.wav", "volume": 100, "start": 0, "duration": 1.5}],
//	  "parameters": [{"type": "reverbWet", "value": 0.3, "targetAudioFile": "clip.wav"}]
//	}
package packager
