// SPDX-License-Identifier: EPL-2.0

// Package waveform reduces a clip to a fixed number of amplitude buckets
// for display.
//
// Extraction never fails loudly: a clip that cannot be decoded produces an
// empty summary and a log line. Summarize is the pure, error-returning core.
package waveform
