// Package step defines DiveStep, the atomic segment every model in the
// decompression core integrates over.
package step

import (
	"fmt"

	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/helpers"
)

// Step is an immutable dive segment: a descent, ascent, hold or gas switch
// starting at start_depth on the given gas, lasting duration seconds at a
// constant rate of depth change in metres/minute (zero for a hold or
// switch, positive for a descent, negative for an ascent).
type Step struct {
	StartDepth float64
	Gas        *gas.Blend
	Rate       float64
	Duration   float64 // seconds
}

// New constructs a Step. It is a thin constructor kept for symmetry with
// the rest of the package's naming; Step has no invariants beyond its
// field types.
func New(startDepth float64, g *gas.Blend, rate, duration float64) Step {
	return Step{StartDepth: startDepth, Gas: g, Rate: rate, Duration: duration}
}

// DepthChange is the net depth change over the step, in metres.
func (s Step) DepthChange() float64 {
	return s.Rate * s.Duration / 60
}

// StartPressure is the absolute ambient pressure in bar at StartDepth.
func (s Step) StartPressure() float64 {
	return helpers.Pressure(s.StartDepth)
}

// PressureRate is the rate of ambient pressure change in bar/minute.
func (s Step) PressureRate() float64 {
	return helpers.PressureChangePerMin(s.Rate)
}

// Minutes is the step's duration in minutes.
func (s Step) Minutes() float64 {
	return s.Duration / 60
}

// EndDepth is the depth in metres at the end of the step.
func (s Step) EndDepth() float64 {
	return s.StartDepth + s.DepthChange()
}

func (s Step) String() string {
	return fmt.Sprintf("%s @ %.1f m - %.1f m over %.1f mins at %.1f m/min",
		s.Gas, s.StartDepth, s.EndDepth(), s.Minutes(), s.Rate)
}
