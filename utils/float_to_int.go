// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Float32ToInt16 clamps x to [-1,1] and scales it by 32767 with
// round-half-away-from-zero, so +1 and -1 map to ±32767.
func Float32ToInt16(x float32) int16 {
	return int16(math.Round(float64(ClampUnit(x)) * math.MaxInt16))
}

// Int16ToFloat32 is the decoding direction used by the PCM decoders.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// ClampUnit limits x to [-1,1].
func ClampUnit(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Clamp limits v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IntToFloat32 normalizes a signed integer PCM sample of the given bit depth
// to [-1,1). Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		return float32(v) / 32768.0
	}
}
