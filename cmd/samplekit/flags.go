// SPDX-License-Identifier: EPL-2.0

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/samplekit/effects"
	"github.com/ik5/samplekit/packager"
)

// settingsFlags binds the effect parameters to a flag set.
type settingsFlags struct {
	eq        string
	project   string
	semitones int
	tempo     float64

	attack, decay, release time.Duration
	sustain                float64

	wet, size, width, depth, predelay float64

	comp effects.CompressorSettings
}

func bindSettings(fs *flag.FlagSet) *settingsFlags {
	f := &settingsFlags{}
	fs.StringVar(&f.project, "project", "", "take the effect settings from a project archive")
	fs.StringVar(&f.eq, "eq", "", fmt.Sprintf("comma separated gains in dB for the %d bands %v Hz", effects.Bands, effects.BandFrequencies))
	fs.IntVar(&f.semitones, "semitones", 0, "pitch shift in semitones")
	fs.Float64Var(&f.tempo, "tempo", 1, "speed ratio, 1 keeps the length")
	fs.DurationVar(&f.attack, "attack", 0, "envelope attack")
	fs.DurationVar(&f.decay, "decay", 0, "envelope decay")
	fs.Float64Var(&f.sustain, "sustain", 1, "envelope sustain level 0..1")
	fs.DurationVar(&f.release, "release", 0, "envelope release")
	fs.Float64Var(&f.wet, "wet", 0, "reverb wet mix 0..1")
	fs.Float64Var(&f.size, "size", 0.5, "reverb room size 0..1")
	fs.Float64Var(&f.width, "width", 1, "reverb stereo width 0..1")
	fs.Float64Var(&f.depth, "depth", 0, "reverb modulation depth 0..1")
	fs.Float64Var(&f.predelay, "predelay", 0, "reverb predelay in ms")
	fs.Float64Var(&f.comp.ThresholdDB, "comp-threshold", 0, "compressor threshold in dB")
	fs.Float64Var(&f.comp.Ratio, "comp-ratio", 0, "compressor ratio, 0 or 1 bypasses it")
	fs.Float64Var(&f.comp.KneeDB, "comp-knee", 0, "compressor soft knee width in dB")
	fs.Float64Var(&f.comp.MakeupDB, "comp-gain", 0, "compressor makeup gain in dB")
	fs.DurationVar(&f.comp.Attack, "comp-attack", 0, "compressor attack")
	fs.DurationVar(&f.comp.Release, "comp-release", 0, "compressor release")
	return f
}

// settings resolves the flags. -project wins over the individual flags.
func (f *settingsFlags) settings() (effects.Settings, error) {
	if f.project != "" {
		meta, err := packager.ExtractMetadata(f.project)
		if err != nil {
			return effects.Settings{}, err
		}
		return meta.Settings(), nil
	}

	eq, err := parseEQ(f.eq)
	if err != nil {
		return effects.Settings{}, err
	}

	return effects.Settings{
		EQ: eq,
		Reverb: effects.ReverbSettings{
			Wet:        f.wet,
			Size:       f.size,
			Width:      f.width,
			Depth:      f.depth,
			PredelayMs: f.predelay,
		},
		Compressor: f.comp,
		ADSR: effects.ADSR{
			Attack:  f.attack,
			Decay:   f.decay,
			Sustain: f.sustain,
			Release: f.release,
		},
		Semitones: f.semitones,
		Tempo:     f.tempo,
	}, nil
}

// parseEQ reads up to Bands comma separated gains; missing bands stay flat.
func parseEQ(s string) (effects.EQSettings, error) {
	var eq effects.EQSettings
	if strings.TrimSpace(s) == "" {
		return eq, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) > effects.Bands {
		return eq, fmt.Errorf("eq has %d bands, at most %d", len(parts), effects.Bands)
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return eq, fmt.Errorf("eq band %d: %w", i, err)
		}
		eq[i] = g
	}
	return eq, nil
}
