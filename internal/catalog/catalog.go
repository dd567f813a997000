// Package catalog is the built-in Tracker+ Tools field catalog: project
// settings plus four small converters between tempo, durations and pitch.
//
// Integer-like inputs (pattern size, time signature, target tempo, target
// semitones) are truncated toward zero inside formulas.
package catalog

import (
	"math"

	"github.com/vk/trackertools/internal/format"
	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

// Section indices.
const (
	SectionProject = iota
	SectionBPMToDuration
	SectionDurationToBPM
	SectionTempoToPitch
	SectionPitchToTempo
)

// Sections are the section names, indexed by the constants above.
var Sections = []string{
	"Project settings",
	"BPM → duration",
	"Duration → BPM",
	"Tempo → pitch",
	"Pitch → tempo",
}

// Units used by the catalog.
const (
	UnitBPM       = "BPM"
	UnitSeconds   = "s"
	UnitBeat      = "beat"
	UnitBeats     = "beats"
	UnitBar       = "bar"
	UnitBars      = "bars"
	UnitStep      = "step"
	UnitSteps     = "steps"
	UnitPattern   = "patt."
	UnitSemitones = "semis"
)

// Tracker registers the built-in catalog.
type Tracker struct{}

// Register implements registry.Module.
func (Tracker) Register(b *registry.Builder) {
	b.Sections(Sections...)
	b.Add(Definitions()...)
}

// New builds a registry holding only the built-in catalog.
func New() (*registry.Registry, error) {
	return registry.NewBuilder().Register(Tracker{}).Build()
}

// number adapts a numeric formula to a registry.DeriveFunc.
func number(fn func(f snapshot.View) float64) registry.DeriveFunc {
	return func(_ value.Value, fields snapshot.View) (value.Value, error) {
		return value.Number(fn(fields)), nil
	}
}

// Definitions returns the catalog fields in declaration order.
func Definitions() []registry.Definition {
	return []registry.Definition{
		{
			ID:      "projectTempo",
			Section: SectionProject,
			Label:   "Tempo",
			Units:   UnitBPM,
			Initial: value.Number(120),
			Bounds:  &registry.Bounds{Min: 1, Max: 999},
			Format:  format.Integer,
		},
		{
			ID:      "patternSize",
			Section: SectionProject,
			Label:   "Pattern",
			Units:   UnitSteps,
			Initial: value.Number(16),
			Bounds:  &registry.Bounds{Min: 1, Max: 128},
			Format:  format.Integer,
		},
		{
			ID:        "timeSignature",
			Section:   SectionProject,
			Label:     "Signature",
			Units:     UnitBeats + "/" + UnitBar,
			Initial:   value.Number(4),
			Bounds:    &registry.Bounds{Min: 1, Max: 16},
			LargeStep: 4,
			Format:    format.Integer,
		},
		{
			ID:       "secondsPerPattern",
			Section:  SectionBPMToDuration,
			Units:    UnitSeconds + "/" + UnitPattern,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return 60 / f.Float("projectTempo") / 4 * f.Int("patternSize")
			}),
			Format: format.Decimal,
		},
		{
			ID:       "secondsPerBeat",
			Section:  SectionBPMToDuration,
			Units:    UnitSeconds + "/" + UnitBeat,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return 60 / f.Float("projectTempo")
			}),
			Format: format.Decimal,
		},
		{
			ID:       "secondsPerBar",
			Section:  SectionBPMToDuration,
			Units:    UnitSeconds + "/" + UnitBar,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return 60 / f.Float("projectTempo") * f.Int("timeSignature")
			}),
			Format: format.Decimal,
		},
		{
			ID:       "secondsPerStep",
			Section:  SectionBPMToDuration,
			Units:    UnitSeconds + "/" + UnitStep,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return 60.0 / 4 / f.Float("projectTempo")
			}),
			Format: format.Decimal,
		},
		{
			ID:        "seconds",
			Section:   SectionDurationToBPM,
			Label:     "Length",
			Units:     UnitSeconds,
			Initial:   value.Number(0.5),
			Bounds:    &registry.Bounds{Min: 0, Max: 60},
			Step:      0.01,
			LargeStep: 1,
			Format:    format.Decimal,
		},
		{
			ID:        "beats",
			Section:   SectionDurationToBPM,
			Label:     "Length",
			Units:     UnitBeats,
			Initial:   value.Number(1),
			Bounds:    &registry.Bounds{Min: 0, Max: 128},
			Step:      0.125,
			LargeStep: 1,
			Format:    format.Decimal,
		},
		{
			ID:       "bars",
			Section:  SectionDurationToBPM,
			Label:    "Length",
			Units:    UnitBars,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return f.Float("beats") / f.Int("timeSignature")
			}),
			Format: format.Decimal,
		},
		{
			ID:       "newBpm",
			Section:  SectionDurationToBPM,
			Label:    "Result",
			Units:    UnitBPM,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return f.Float("beats") * 60 / f.Float("seconds")
			}),
			Format: format.OneDecimal,
		},
		{
			ID:      "targetTempo",
			Section: SectionTempoToPitch,
			Label:   "Target",
			Units:   UnitBPM,
			Initial: value.Number(180),
			Bounds:  &registry.Bounds{Min: 1, Max: 999},
			Format:  format.Integer,
		},
		{
			ID:       "changedSemitones",
			Section:  SectionTempoToPitch,
			Label:    "Change",
			Units:    UnitSemitones,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return 12 * math.Log2(f.Int("targetTempo")/f.Float("projectTempo"))
			}),
			Format: format.Decimal,
		},
		{
			ID:       "changedNote",
			Section:  SectionTempoToPitch,
			Label:    "Note",
			Initial:  value.String("G5 / M -2"),
			ReadOnly: true,
			Derive: func(current value.Value, _ snapshot.View) (value.Value, error) {
				return value.String(current.Text()), nil
			},
		},
		{
			ID:      "targetSemitones",
			Section: SectionPitchToTempo,
			Label:   "Change",
			Units:   UnitSemitones,
			Initial: value.Number(-1),
			Bounds:  &registry.Bounds{Min: -24, Max: 24},
			Format:  format.Integer,
		},
		{
			ID:       "changedBpm",
			Section:  SectionPitchToTempo,
			Label:    "Result",
			Units:    UnitBPM,
			Initial:  value.Number(0),
			ReadOnly: true,
			Derive: number(func(f snapshot.View) float64 {
				return f.Float("projectTempo") * math.Pow(2, f.Int("targetSemitones")/12)
			}),
			Format: format.OneDecimal,
		},
	}
}
