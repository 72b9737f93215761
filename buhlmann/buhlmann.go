// Package buhlmann implements the Bühlmann ZHL-16C gradient-factor
// decompression model: sixteen compound nitrogen/helium tissue
// compartments integrated with the Schreiner equation, a linear
// gradient-factor schedule between the first stop and the surface, and the
// ceiling/decompress surface the scheduler drives.
//
// Sources of information used for the Bühlmann ZHL-16 algorithm:
//
//	http://www.lizardland.co.uk/DIYDeco.html
//	https://wrobell.dcmod.org/decotengu/model.html
package buhlmann

import (
	"log/slog"
	"math"

	"github.com/sublayer/decoplan/decompression"
	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/helpers"
	"github.com/sublayer/decoplan/step"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) { logger = l }

// pH2O is the partial pressure of water vapour in the lungs in bar,
// constant regardless of ambient pressure. Equivalent to 47 mmHg.
const pH2O = 0.0627

func pulmonaryPP(ambientPressure, fraction float64) float64 {
	return (ambientPressure - pH2O) * fraction
}

// schreinerEquation integrates a single compartment's tension over a
// constant-rate pressure change: inspired pressure pi, rate r (bar/min),
// duration t (minutes) and time constant k = ln(2)/half_life.
func schreinerEquation(p0, pi, r, t, k float64) float64 {
	return pi + r*(t-1/k) - (pi-p0-r/k)*math.Exp(-k*t)
}

type coef struct {
	halfLife, a, b float64
}

// zhl16cN2 and zhl16cHe are the sixteen-compartment ZHL-16C coefficient
// tables (Bühlmann/Baker 1998), the variant spec.md names explicitly.
var zhl16cN2 = [16]coef{
	{5.0, 1.1696, 0.5578}, {8.0, 1.0000, 0.6514}, {12.5, 0.8618, 0.7222},
	{18.5, 0.7562, 0.7825}, {27.0, 0.6200, 0.8126}, {38.3, 0.5043, 0.8434},
	{54.3, 0.4410, 0.8693}, {77.0, 0.4000, 0.8910}, {109.0, 0.3750, 0.9092},
	{146.0, 0.3500, 0.9222}, {187.0, 0.3295, 0.9319}, {239.0, 0.3065, 0.9403},
	{305.0, 0.2835, 0.9477}, {390.0, 0.2610, 0.9544}, {498.0, 0.2480, 0.9602},
	{635.0, 0.2327, 0.9653},
}

var zhl16cHe = [16]coef{
	{1.88, 1.6189, 0.4770}, {3.02, 1.3830, 0.5747}, {4.72, 1.1919, 0.6527},
	{6.99, 1.0458, 0.7223}, {10.21, 0.9220, 0.7582}, {14.48, 0.8205, 0.7957},
	{20.53, 0.7305, 0.8279}, {29.11, 0.6502, 0.8553}, {41.20, 0.5950, 0.8757},
	{55.19, 0.5545, 0.8903}, {70.69, 0.5333, 0.8997}, {90.34, 0.5189, 0.9073},
	{115.29, 0.5181, 0.9122}, {147.42, 0.5176, 0.9171}, {188.24, 0.5172, 0.9217},
	{240.03, 0.5119, 0.9267},
}

// tissue is a single N2 or He compartment, integrated separately so each
// species can track its own fraction and half-life before being
// recombined into a compound compartment.
type tissue struct {
	coef    coef
	species *gas.Gas
	pp      float64
}

func newTissue(c coef, species *gas.Gas) *tissue {
	return &tissue{coef: c, species: species, pp: pulmonaryPP(1, gas.Air.Fraction(species))}
}

func (t *tissue) apply(s step.Step) {
	k := math.Ln2 / t.coef.halfLife
	pi := pulmonaryPP(s.StartPressure(), s.Gas.Fraction(t.species))
	r := s.PressureRate() * s.Gas.Fraction(t.species)
	t.pp = schreinerEquation(t.pp, pi, r, s.Minutes(), k)
}

// compartment is a Bühlmann compound compartment: its effective a/b
// coefficients and pressure limit are the N2/He-pressure-weighted blend of
// its two constituent tissues, rather than the single conservative a/b
// pair a nitrogen-only model would use.
type compartment struct {
	n2, he *tissue
}

func newCompartment(n2c, hec coef) *compartment {
	return &compartment{n2: newTissue(n2c, gas.Nitrogen), he: newTissue(hec, gas.Helium)}
}

func (c *compartment) apply(s step.Step) {
	c.n2.apply(s)
	c.he.apply(s)
}

func (c *compartment) totalPP() float64 { return c.n2.pp + c.he.pp }

func (c *compartment) a() float64 {
	total := c.totalPP()
	if total == 0 {
		return 0
	}
	return (c.n2.coef.a*c.n2.pp + c.he.coef.a*c.he.pp) / total
}

func (c *compartment) b() float64 {
	total := c.totalPP()
	if total == 0 {
		return 1
	}
	return (c.n2.coef.b*c.n2.pp + c.he.coef.b*c.he.pp) / total
}

// pressureLimit is the compartment's tolerated ambient pressure (ata) at
// the given gradient factor: gf=1 is the raw M-value line, gf=0 is ambient
// pressure itself.
func (c *compartment) pressureLimit(gf float64) float64 {
	a, b := c.a(), c.b()
	return (c.totalPP() - a*gf) / (gf/b + 1 - gf)
}

func ataToDepth(p float64) float64 { return helpers.Depth(p) }

// snapshot captures every compartment's tension plus the pinned first
// stop, pushed onto Engine's undo stack on every ApplyStep.
type snapshot struct {
	n2pp, hepp [16]float64
	firstStop  *float64
}

// Engine is a Bühlmann ZHL-16C gradient-factor decompression engine bound
// to a dive ledger. It implements decompression.Engine and
// decompression.CeilingProvider.
type Engine struct {
	ctx          decompression.DiveContext
	compartments [16]*compartment
	lowGF        float64
	highGF       float64
	firstStop    *float64
	history      []snapshot
	scheduler    *decompression.Scheduler
}

// New builds a ZHL-16C engine with every compartment equilibrated to
// surface air saturation, and a scheduler anchored per anchor.
func New(ctx decompression.DiveContext, lowGF, highGF float64, anchor decompression.FirstStopAnchor) *Engine {
	e := &Engine{ctx: ctx, lowGF: lowGF, highGF: highGF}
	for i := range e.compartments {
		e.compartments[i] = newCompartment(zhl16cN2[i], zhl16cHe[i])
	}
	e.scheduler = decompression.NewScheduler(ctx, e)
	e.scheduler.Anchor = anchor
	return e
}

// Scheduler exposes the engine's scheduler so callers can tune its
// gas-switch and ascent-rate configuration.
func (e *Engine) Scheduler() *decompression.Scheduler { return e.scheduler }

// ApplyStep integrates every compartment over s and snapshots the prior
// state so UndoLastStep can restore it exactly.
func (e *Engine) ApplyStep(s step.Step) {
	var snap snapshot
	for i, c := range e.compartments {
		snap.n2pp[i] = c.n2.pp
		snap.hepp[i] = c.he.pp
	}
	snap.firstStop = e.firstStop
	e.history = append(e.history, snap)

	for _, c := range e.compartments {
		c.apply(s)
	}
}

// UndoLastStep restores the compartments and first stop to their state
// before the most recent ApplyStep; it is a no-op once the history is
// empty.
func (e *Engine) UndoLastStep() {
	if len(e.history) == 0 {
		return
	}
	snap := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	for i, c := range e.compartments {
		c.n2.pp = snap.n2pp[i]
		c.he.pp = snap.hepp[i]
	}
	e.firstStop = snap.firstStop
}

// gf is the gradient factor at depth, interpolated linearly between
// high_gf at the surface and low_gf at the pinned first stop. With no
// first stop pinned (or one pinned at the surface), high_gf applies
// everywhere.
func (e *Engine) gf(depth float64) float64 {
	if e.firstStop == nil || *e.firstStop == 0 {
		return e.highGF
	}
	fs := *e.firstStop
	if depth >= fs {
		return e.lowGF
	}
	return e.lowGF + (e.highGF-e.lowGF)*(fs-depth)/fs
}

// ceilings returns every compartment's tolerated ambient pressure at gf.
func (e *Engine) ceilings(gf float64) []float64 {
	out := make([]float64, len(e.compartments))
	for i, c := range e.compartments {
		out[i] = c.pressureLimit(gf)
	}
	return out
}

// Ceiling returns the shallowest safe ascent depth in metres, never below
// 0, at depth (or the dive's current depth if nil).
func (e *Engine) Ceiling(depth *float64) float64 {
	d := e.ctx.Depth()
	if depth != nil {
		d = *depth
	}
	gf := e.gf(d)
	maxP := 1.0
	for _, p := range e.ceilings(gf) {
		if p > maxP {
			maxP = p
		}
	}
	return math.Max(0, ataToDepth(maxP))
}

// CanSurface reports whether every compartment tolerates ascent all the
// way to the surface.
func (e *Engine) CanSurface() bool {
	return e.Ceiling(decompression.Depth(0)) <= 0
}

// FirstStop returns the pinned gradient-factor anchor depth, if any.
func (e *Engine) FirstStop() (float64, bool) {
	if e.firstStop == nil {
		return 0, false
	}
	return *e.firstStop, true
}

// SetFirstStop pins the gradient-factor anchor depth.
func (e *Engine) SetFirstStop(depth float64) { e.firstStop = &depth }

// ClearFirstStop unpins the gradient-factor anchor, reverting gf to
// high_gf everywhere.
func (e *Engine) ClearFirstStop() { e.firstStop = nil }

// Decompress drains the scheduler to a committed decompression profile.
func (e *Engine) Decompress() ([]decompression.Stop, error) {
	logger.Debug("running buhlmann decompression", "low_gf", e.lowGF, "high_gf", e.highGF)
	return decompression.Run(e.scheduler)
}
