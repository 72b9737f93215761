// Package consumption implements the gas-consumption observer of
// spec.md: surface-equivalent breathing gas volume tracked per gas blend
// at a constant surface-air-consumption (SAC) rate, corrected for the
// blend's compressibility at the pressure it was breathed at. It
// deliberately does not implement the gas-blending calculator (computing
// how to mix a target blend from existing cylinder contents), which is
// out of scope.
package consumption

import (
	"log/slog"

	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/helpers"
	"github.com/sublayer/decoplan/step"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) { logger = l }

// usage is one gas blend's accumulated surface-equivalent litres.
type usage struct {
	blend  *gas.Blend
	litres float64
}

// Model tracks breathing gas consumption across a dive at a fixed SAC
// rate, split out per distinct gas blend (compared by value via
// gas.Blend.Equal, not by identity: two DiveStep.Gas pointers built from
// the same fractions are the same consumption bucket).
type Model struct {
	sacRate float64 // litres/minute at the surface
	usage   []usage
	history [][]usage
}

// New returns a consumption Model at the given surface air consumption
// rate, in litres per minute.
func New(sacRate float64) *Model {
	return &Model{sacRate: sacRate}
}

func (m *Model) addUsage(g *gas.Blend, litres float64) {
	for i := range m.usage {
		if m.usage[i].blend.Equal(g) {
			m.usage[i].litres += litres
			return
		}
	}
	m.usage = append(m.usage, usage{blend: g, litres: litres})
}

// ApplyStep accumulates the surface-equivalent volume of s.Gas consumed
// over s, at the average ambient pressure across the step, corrected for
// the blend's compressibility relative to its compressibility at the
// surface (1 bar).
func (m *Model) ApplyStep(s step.Step) {
	snap := make([]usage, len(m.usage))
	copy(snap, m.usage)
	m.history = append(m.history, snap)

	endPressure := s.StartPressure() + s.PressureRate()*s.Minutes()
	avgPressure := (s.StartPressure() + endPressure) / 2
	litres := m.sacRate * s.Minutes() * avgPressure * s.Gas.Compressibility(avgPressure) / s.Gas.Compressibility(1)
	m.addUsage(s.Gas, litres)
}

// UndoLastStep reverts the most recently applied step.
func (m *Model) UndoLastStep() {
	if len(m.history) == 0 {
		return
	}
	m.usage = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
}

// VolumeFor returns the accumulated surface-equivalent litres consumed of
// g, or 0 if g was never breathed.
func (m *Model) VolumeFor(g *gas.Blend) float64 {
	for _, u := range m.usage {
		if u.blend.Equal(g) {
			return u.litres
		}
	}
	return 0
}

// TotalVolume is the accumulated surface-equivalent litres across every
// gas blend breathed.
func (m *Model) TotalVolume() float64 {
	total := 0.0
	for _, u := range m.usage {
		total += u.litres
	}
	return total
}

// TotalVolumeCubicFeet is TotalVolume expressed in cubic feet rather than
// litres, for divers and agencies that plan in imperial units.
func (m *Model) TotalVolumeCubicFeet() float64 {
	return helpers.LitresToCubicFeet(m.TotalVolume())
}

// Blends returns the distinct gas blends consumption has been tracked
// for, in the order first encountered.
func (m *Model) Blends() []*gas.Blend {
	blends := make([]*gas.Blend, len(m.usage))
	for i, u := range m.usage {
		blends[i] = u.blend
	}
	return blends
}
