// SPDX-License-Identifier: EPL-2.0

package packager

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/samplekit/effects"
)

// ConfigName is the descriptor entry inside every project archive.
const ConfigName = "config.json"

// Metadata is the config.json document.
type Metadata struct {
	AudioFiles []AudioFile `json:"audioFiles"`
	Parameters []Parameter `json:"parameters"`
}

type AudioFile struct {
	Name   string  `json:"name"`
	Volume int     `json:"volume"`
	Start  float64 `json:"start"`
	// Duration is in seconds, rounded to one decimal.
	Duration float64 `json:"duration"`
}

// Parameter is one effect setting stored with a project.
type Parameter struct {
	Type            string  `json:"type"`
	Value           float64 `json:"value"`
	TargetAudioFile string  `json:"targetAudioFile,omitempty"`
}

// Parameter types.
const (
	ParamEQBandPrefix   = "eq_band_"
	ParamAttack         = "attack"
	ParamDecay          = "decay"
	ParamSustain        = "sustain"
	ParamRelease        = "release"
	ParamReverbWet      = "reverbWet"
	ParamReverbSize     = "reverbSize"
	ParamReverbWidth    = "reverbWidth"
	ParamReverbDepth    = "reverbDepth"
	ParamReverbPredelay = "reverbPredelay"
	ParamCompThreshold  = "compThreshold"
	ParamCompRatio      = "compRatio"
	ParamCompKnee       = "compKnee"
	ParamCompGain       = "compGain"
	ParamCompAttack     = "compAttack"
	ParamCompDecay      = "compDecay"
	ParamSemitones      = "semitones"
	ParamTempo          = "tempo"
)

// RoundDuration converts d to seconds with one decimal.
func RoundDuration(d time.Duration) float64 {
	return math.Round(d.Seconds()*10) / 10
}

// Parameters flattens s into the config.json parameter list for target.
// Envelope and compressor times are stored in seconds.
func Parameters(target string, s effects.Settings) []Parameter {
	out := make([]Parameter, 0, effects.Bands+17)
	add := func(typ string, v float64) {
		out = append(out, Parameter{Type: typ, Value: v, TargetAudioFile: target})
	}

	for i, g := range s.EQ {
		add(ParamEQBandPrefix+strconv.Itoa(i), g)
	}
	add(ParamAttack, s.ADSR.Attack.Seconds())
	add(ParamDecay, s.ADSR.Decay.Seconds())
	add(ParamSustain, s.ADSR.Sustain)
	add(ParamRelease, s.ADSR.Release.Seconds())
	add(ParamReverbWet, s.Reverb.Wet)
	add(ParamReverbSize, s.Reverb.Size)
	add(ParamReverbWidth, s.Reverb.Width)
	add(ParamReverbDepth, s.Reverb.Depth)
	add(ParamReverbPredelay, s.Reverb.PredelayMs)
	add(ParamCompThreshold, s.Compressor.ThresholdDB)
	add(ParamCompRatio, s.Compressor.Ratio)
	add(ParamCompKnee, s.Compressor.KneeDB)
	add(ParamCompGain, s.Compressor.MakeupDB)
	add(ParamCompAttack, s.Compressor.Attack.Seconds())
	add(ParamCompDecay, s.Compressor.Release.Seconds())
	add(ParamSemitones, float64(s.Semitones))
	add(ParamTempo, s.Tempo)

	return out
}

// Settings rebuilds effect settings from the stored parameters. Unknown
// types are ignored and missing ones keep their zero value.
func (m Metadata) Settings() effects.Settings {
	var s effects.Settings
	seconds := func(v float64) time.Duration {
		return time.Duration(math.Round(max(v, 0) * float64(time.Second)))
	}

	for _, p := range m.Parameters {
		switch p.Type {
		case ParamAttack:
			s.ADSR.Attack = seconds(p.Value)
		case ParamDecay:
			s.ADSR.Decay = seconds(p.Value)
		case ParamSustain:
			s.ADSR.Sustain = p.Value
		case ParamRelease:
			s.ADSR.Release = seconds(p.Value)
		case ParamReverbWet:
			s.Reverb.Wet = p.Value
		case ParamReverbSize:
			s.Reverb.Size = p.Value
		case ParamReverbWidth:
			s.Reverb.Width = p.Value
		case ParamReverbDepth:
			s.Reverb.Depth = p.Value
		case ParamReverbPredelay:
			s.Reverb.PredelayMs = p.Value
		case ParamCompThreshold:
			s.Compressor.ThresholdDB = p.Value
		case ParamCompRatio:
			s.Compressor.Ratio = p.Value
		case ParamCompKnee:
			s.Compressor.KneeDB = p.Value
		case ParamCompGain:
			s.Compressor.MakeupDB = p.Value
		case ParamCompAttack:
			s.Compressor.Attack = seconds(p.Value)
		case ParamCompDecay:
			s.Compressor.Release = seconds(p.Value)
		case ParamSemitones:
			s.Semitones = int(math.Round(p.Value))
		case ParamTempo:
			s.Tempo = p.Value
		default:
			band, ok := strings.CutPrefix(p.Type, ParamEQBandPrefix)
			if !ok {
				continue
			}
			if i, err := strconv.Atoi(band); err == nil && i >= 0 && i < effects.Bands {
				s.EQ[i] = p.Value
			}
		}
	}

	return s
}

func (m Metadata) validate() error {
	if len(m.AudioFiles) == 0 {
		return fmt.Errorf("%w: no audio files", ErrInvalidConfig)
	}
	return nil
}
