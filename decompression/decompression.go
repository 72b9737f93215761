// Package decompression defines the decompression-engine contract shared by
// the Bühlmann ZHL-16C and VPM-B models, the DecompressionStop type they
// produce, and the stop/search machinery (the "scheduler" of spec.md §4.5)
// that drives both of them to a committed schedule.
package decompression

import (
	"log/slog"

	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/step"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger, mirroring the per-module
// loggers of the Python original.
func SetLogger(l *slog.Logger) { logger = l }

// Stop is a single committed decompression stop.
type Stop struct {
	Depth    float64
	Duration float64 // minutes
	Gas      *gas.Blend
}

// FirstStopAnchor selects how the Bühlmann engine's gradient-factor first
// stop is pinned; it has no effect on VPM-B, which always derives its
// first stop from the critical-volume loop.
type FirstStopAnchor int

const (
	CeilingAtStartOfDeco FirstStopAnchor = iota
	RoundedCeilingAtStartOfDeco
	FirstActualStop
)

// DiveContext is the read/mutate surface a decompression engine needs from
// its owning Dive. Models hold a DiveContext only to read depth/gas and to
// drive ascent/stay/switch probes; they never construct or own a Dive
// directly, matching the ownership rule of spec.md §3.
type DiveContext interface {
	Depth() float64
	Gas() *gas.Blend
	Duration() float64
	DecoGases() map[float64]*gas.Blend
	DefaultAscentRate() float64

	Ascend(to, rate float64) step.Step
	Stay(minutes float64) step.Step
	SwitchGas(g *gas.Blend, switchTimeMin float64) step.Step

	UndoLastStep()
	UndoSteps(n int)

	SetInDecompression(bool)
	Reset()
}

// Model is the minimal apply/undo contract every dive-ledger observer
// (decompression engines, oxygen toxicity, gas consumption) implements.
type Model interface {
	ApplyStep(s step.Step)
	UndoLastStep()
}

// Engine is the tagged-variant contract of spec.md §9: a decompression
// engine is a Model that additionally answers ceiling/can-surface queries
// and can drain a full decompression schedule.
type Engine interface {
	Model

	// Ceiling returns the shallowest safe ascent depth in metres at the
	// given depth, or at the dive's current depth when depth is nil.
	Ceiling(depth *float64) float64
	CanSurface() bool

	FirstStop() (float64, bool)
	SetFirstStop(depth float64)
	ClearFirstStop()

	// Decompress drains the engine's decompression profile to a committed
	// list of Stops, leaving the dive's decompression_steps populated.
	Decompress() ([]Stop, error)
}

// Depth is a small helper to build the *float64 arguments Ceiling expects.
func Depth(d float64) *float64 { return &d }
