// Package vpmb implements the Varying Permeability Model (VPM-B) bubble
// decompression model: tissue loading identical to Bühlmann's Schreiner
// integration, but a tolerated supersaturation gradient derived from
// bubble-nucleus mechanics (crushing pressure history, critical radius,
// nuclear regeneration) rather than a fixed M-value line, resolved through
// a critical-volume conservatism loop.
package vpmb

import (
	"fmt"
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

// pH2O is VPM-B's own alveolar water vapour correction, distinct from
// buhlmann's: the two models calibrate their compartments against
// different reference tables.
const pH2O = 0.0493

// Bubble-mechanics constants, after Baker's VPM-B formulation.
const (
	surfaceTensionGamma           = 0.18137175 // bar.um, crushed-nucleus surface tension
	surfaceTensionGammaC          = 2.6040525  // bar.um, skin-compression surface tension
	regenerationTimeConstant      = 20160.0    // minutes, nuclear regeneration time constant (~2 weeks)
	gradientOnsetOfImpermeability = 8.2 * 1.01325
	pressureOtherGases            = 102.0 / 760.0 * 10.1325 / 10 // bar, CO2 + H2O + metabolic tension
	criticalVolumeParameterLambda = 199.58
	maxCVAIterations              = 20
)

// conservatismLevels scales the adjusted critical radius by conservatism
// level, 0 (least conservative) to 4 (most), mirroring VPM-B's published
// table: a lower radius tolerates a larger gradient.
var conservatismLevels = [5]float64{1.0, 1.05, 1.12, 1.22, 1.35}

// conservatismMultiplier rounds level to the nearest conservatism index,
// clamped to the table's range, so the radius scaling (not a post-hoc
// gradient scalar) is where conservatism enters the model.
func conservatismMultiplier(level float64) float64 {
	idx := int(math.Round(level))
	if idx < 0 {
		idx = 0
	}
	if idx > len(conservatismLevels)-1 {
		idx = len(conservatismLevels) - 1
	}
	return conservatismLevels[idx]
}

func pulmonaryPP(ambientPressure, fraction float64) float64 {
	return (ambientPressure - pH2O) * fraction
}

func schreinerEquation(p0, pi, r, t, k float64) float64 {
	return pi + r*(t-1/k) - (pi-p0-r/k)*math.Exp(-k*t)
}

// initialAllowableGradient is the allowable gradient before any
// critical-volume desaturation-time adjustment: 2γ(γc−γ)/(radius·γc).
func initialAllowableGradient(radius float64) float64 {
	return 2 * surfaceTensionGamma * (surfaceTensionGammaC - surfaceTensionGamma) / (radius * surfaceTensionGammaC)
}

// bottomAllowableGradient is initialAllowableGradient(radius) until the
// critical-volume loop has computed a desaturation time for this
// compartment; once it has, it is the physical root of the quadratic that
// trades a larger allowable gradient now against the adjusted crushing
// pressure's bubble volume accumulated over that desaturation time.
func bottomAllowableGradient(radius float64, desaturationTime *float64, adjustedCrushingPressure float64) float64 {
	initial := initialAllowableGradient(radius)
	if desaturationTime == nil || *desaturationTime <= 0 {
		return initial
	}
	dt := *desaturationTime
	b := initial + (criticalVolumeParameterLambda*surfaceTensionGamma)/(surfaceTensionGammaC*radius)*(1/dt)
	c := (criticalVolumeParameterLambda * surfaceTensionGamma * adjustedCrushingPressure) / (surfaceTensionGammaC * radius * dt)
	discriminant := b*b - 4*c
	if discriminant < 0 {
		discriminant = 0
	}
	return (b + math.Sqrt(discriminant)) / 2
}

type coef struct {
	halfLife, criticalRadius float64
}

// n2Coefs and heCoefs pair each compartment's half-life with its initial
// (fully adapted) critical radius in micrometres.
var n2Coefs = [16]coef{
	{5.0, 0.5500}, {8.0, 0.5420}, {12.5, 0.5350}, {18.5, 0.5280},
	{27.0, 0.5210}, {38.3, 0.5150}, {54.3, 0.5090}, {77.0, 0.5030},
	{109.0, 0.4980}, {146.0, 0.4930}, {187.0, 0.4890}, {239.0, 0.4850},
	{305.0, 0.4820}, {390.0, 0.4790}, {498.0, 0.4770}, {635.0, 0.4750},
}

var heCoefs = [16]coef{
	{1.88, 0.4700}, {3.02, 0.4610}, {4.72, 0.4530}, {6.99, 0.4460},
	{10.21, 0.4390}, {14.48, 0.4320}, {20.53, 0.4260}, {29.11, 0.4200},
	{41.20, 0.4150}, {55.19, 0.4100}, {70.69, 0.4060}, {90.34, 0.4020},
	{115.29, 0.3990}, {147.42, 0.3960}, {188.24, 0.3930}, {240.03, 0.3910}}

// tissue tracks a single N2 or He compartment's gas loading. Crushing
// pressure is tracked one level up, on compartment, since it is defined
// from the compound inert-gas tension rather than either tissue alone.
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

// adjustedCriticalRadius is this tissue's critical radius after
// conservatism-level scaling.
func (t *tissue) adjustedCriticalRadius(conservatismMult float64) float64 {
	return t.coef.criticalRadius * conservatismMult
}

// endingRadius is the bubble radius right after the deepest crushing this
// dive applied, per Boyle's law on the adjusted critical radius.
func (t *tissue) endingRadius(maxCrushingPressure, conservatismMult float64) float64 {
	adjusted := t.adjustedCriticalRadius(conservatismMult)
	return 1 / (maxCrushingPressure/(2*(surfaceTensionGammaC-surfaceTensionGamma)) + 1/adjusted)
}

// regeneratedRadius is the critical radius after diveMinutes of nuclear
// regeneration decay from endingRadius back towards the adjusted critical
// radius.
func (t *tissue) regeneratedRadius(maxCrushingPressure, diveMinutes, conservatismMult float64) float64 {
	adjusted := t.adjustedCriticalRadius(conservatismMult)
	if maxCrushingPressure <= 0 {
		return adjusted
	}
	ending := t.endingRadius(maxCrushingPressure, conservatismMult)
	decay := math.Exp(-diveMinutes / regenerationTimeConstant)
	return adjusted + (ending-adjusted)*decay
}

// adjustedCrushingPressure corrects maxCrushingPressure for the bubble
// radius having regenerated since the moment of deepest crushing.
func (t *tissue) adjustedCrushingPressure(maxCrushingPressure, diveMinutes, conservatismMult float64) float64 {
	if maxCrushingPressure <= 0 {
		return 0
	}
	adjusted := t.adjustedCriticalRadius(conservatismMult)
	ending := t.endingRadius(maxCrushingPressure, conservatismMult)
	regenerated := t.regeneratedRadius(maxCrushingPressure, diveMinutes, conservatismMult)
	return maxCrushingPressure * (ending * (adjusted - regenerated)) / (regenerated * (adjusted - ending))
}

// allowableGradient is the tolerated ambient-minus-tissue supersaturation
// gradient (bar): bottomAllowableGradient directly while first_stop is
// unpinned, or the physical root of the depressed cubic tying it to
// firstStop's own ambient pressure once it is.
func (t *tissue) allowableGradient(maxCrushingPressure, diveMinutes, conservatismMult float64, desaturationTime *float64, firstStop *float64, depthPressure float64) (float64, error) {
	radius := t.regeneratedRadius(maxCrushingPressure, diveMinutes, conservatismMult)
	adjustedCrush := t.adjustedCrushingPressure(maxCrushingPressure, diveMinutes, conservatismMult)
	bottomGrad := bottomAllowableGradient(radius, desaturationTime, adjustedCrush)
	if firstStop == nil {
		return bottomGrad, nil
	}

	firstStopPressure := helpers.Pressure(*firstStop)
	b := bottomGrad * bottomGrad * bottomGrad / (firstStopPressure + bottomGrad)
	c := depthPressure * b
	return decompression.DepressedCubicRoot(b, c, bottomGrad)
}

// compartment is a compound N2/He VPM-B compartment. Crushing pressure is
// defined from the compartment's combined inert-gas tension (spec.md
// §4.4), not from either tissue's tension alone, so it lives here rather
// than on tissue.
type compartment struct {
	n2, he *tissue

	crushingPressure     float64
	maxCrushingPressure  float64
	crushingOnsetTension float64
	impermeable          bool
	desaturationTime     *float64
}

func newCompartment(n2c, hec coef) *compartment {
	return &compartment{n2: newTissue(n2c, gas.Nitrogen), he: newTissue(hec, gas.Helium)}
}

func (c *compartment) totalPP() float64 { return c.n2.pp + c.he.pp }

// updateCrushingPressure implements the three-way branch the filtered
// original source's compartment.inner_pressure(crushing_onset_tension)
// call feeds into: permeable (gradient at or below the onset threshold)
// simply tracks the current gradient; impermeable-and-not-descending
// (an ascent or a hold) carries the prior crushing pressure forward
// unchanged; impermeable-and-descending recomputes crushing pressure
// against the inert-gas tension frozen at the moment impermeability was
// first triggered (crushingOnsetTension), rather than the tension at the
// end of this step, since the tissue is no longer equilibrating with
// ambient pressure while impermeable. See DESIGN.md for why this is the
// resolution chosen for the original's undefined helper.
func (c *compartment) updateCrushingPressure(s step.Step) {
	ambientEnd := s.StartPressure() + s.PressureRate()*s.Minutes()
	gradient := ambientEnd - (c.totalPP() + pressureOtherGases)

	switch {
	case gradient <= gradientOnsetOfImpermeability:
		c.crushingPressure = gradient
		c.impermeable = false
	case s.Rate <= 0:
		// Impermeable while ascending or holding: crushing pressure is
		// frozen until the tissue becomes permeable again.
	default:
		if !c.impermeable {
			c.crushingOnsetTension = c.totalPP()
			c.impermeable = true
		}
		c.crushingPressure = ambientEnd - (c.crushingOnsetTension + pressureOtherGases)
	}

	if c.crushingPressure > c.maxCrushingPressure {
		c.maxCrushingPressure = c.crushingPressure
	}
}

func (c *compartment) apply(s step.Step) {
	c.n2.apply(s)
	c.he.apply(s)
	c.updateCrushingPressure(s)
}

// allowableGradient combines each tissue's allowable gradient weighted by
// its partial pressure, mirroring how the compound compartment's a/b
// coefficients are blended in buhlmann, but both tissues share this
// compartment's single crushing-pressure and desaturation-time history.
func (c *compartment) allowableGradient(diveMinutes, conservatismMult float64, firstStop *float64, depthPressure float64) (float64, error) {
	n2g, err := c.n2.allowableGradient(c.maxCrushingPressure, diveMinutes, conservatismMult, c.desaturationTime, firstStop, depthPressure)
	if err != nil {
		return 0, err
	}
	heg, err := c.he.allowableGradient(c.maxCrushingPressure, diveMinutes, conservatismMult, c.desaturationTime, firstStop, depthPressure)
	if err != nil {
		return 0, err
	}
	total := c.totalPP()
	if total == 0 {
		return n2g, nil
	}
	return (n2g*c.n2.pp + heg*c.he.pp) / total, nil
}

// toleratedAmbientPressure is the shallowest ambient pressure (ata) this
// compartment tolerates at depthPressure: its current tension plus
// other-gas tension minus the allowable bubble gradient.
func (c *compartment) toleratedAmbientPressure(diveMinutes, conservatismMult float64, firstStop *float64, depthPressure float64) (float64, error) {
	gradient, err := c.allowableGradient(diveMinutes, conservatismMult, firstStop, depthPressure)
	if err != nil {
		return 0, err
	}
	return c.totalPP() + pressureOtherGases - gradient, nil
}

// startOfDecoZone bisects between 0 and maxDepth, to within 0.1 m, for the
// depth at which this compartment's inert-gas tension plus other-gas
// tension equals the ambient pressure there, and returns the deeper edge
// of the final bracket (the shallowest depth found at which the tension no
// longer exceeds ambient): the deepest point at which bubble formation in
// this compartment is still possible. The loop is capped at
// decompression.MaxIterations and returns its current bracket edge, not an
// error, if the cap is reached.
func (c *compartment) startOfDecoZone(maxDepth float64) float64 {
	lo, hi := 0.0, maxDepth
	for i := 0; i < decompression.MaxIterations; i++ {
		if hi-lo < 0.1 {
			return hi
		}
		mid := (lo + hi) / 2
		targetPressure := mid/10 + 1
		if c.totalPP()+pressureOtherGases > targetPressure {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

func ataToDepth(p float64) float64 { return helpers.Depth(p) }

type compartmentSnapshot struct {
	n2pp, hepp           float64
	crushingPressure     float64
	maxCrushingPressure  float64
	crushingOnsetTension float64
	impermeable          bool
	desaturationTime     *float64
}

type snapshot struct {
	compartments [16]compartmentSnapshot
	firstStop    *float64
}

// Engine is a VPM-B decompression engine bound to a dive ledger. It
// implements decompression.Engine and decompression.CeilingProvider.
type Engine struct {
	ctx          decompression.DiveContext
	compartments [16]*compartment
	conservatism float64 // as given; conservatismMultiplier rounds it to the nearest level, 0-4
	cva          bool
	firstStop    *float64
	history      []snapshot
	scheduler    *decompression.Scheduler
}

// New builds a VPM-B engine with every compartment equilibrated to
// surface air saturation. conservatism selects the nearest of VPM-B's
// five published conservatism levels (0 least conservative, 4 most),
// which scales the critical-radius table the allowable gradient is
// derived from.
func New(ctx decompression.DiveContext, conservatism float64) *Engine {
	e := &Engine{ctx: ctx, conservatism: conservatism, cva: true}
	for i := range e.compartments {
		e.compartments[i] = newCompartment(n2Coefs[i], heCoefs[i])
	}
	// VPM-B pins its own first stop from the critical-volume loop (below)
	// rather than through the scheduler's generic FindFirstStop search, so
	// Anchor is left at its zero value and never consulted; only
	// FindStopLength/AscendCheckSwitch/NextStopDepth/LastStop are shared
	// with buhlmann.
	e.scheduler = decompression.NewScheduler(ctx, e)
	return e
}

// Scheduler exposes the engine's scheduler for configuration.
func (e *Engine) Scheduler() *decompression.Scheduler { return e.scheduler }

// SetCVA toggles the critical-volume adjustment loop; disabling it (used
// by tests wanting a single deterministic pass) stops after the first
// schedule rather than iterating until deco_phase_volume_time converges.
func (e *Engine) SetCVA(enabled bool) { e.cva = enabled }

// ApplyStep integrates every compartment over s, tracking crushing
// pressure history, and snapshots the prior state for UndoLastStep.
func (e *Engine) ApplyStep(s step.Step) {
	var snap snapshot
	for i, c := range e.compartments {
		snap.compartments[i] = compartmentSnapshot{
			n2pp: c.n2.pp, hepp: c.he.pp,
			crushingPressure:     c.crushingPressure,
			maxCrushingPressure:  c.maxCrushingPressure,
			crushingOnsetTension: c.crushingOnsetTension,
			impermeable:          c.impermeable,
			desaturationTime:     c.desaturationTime,
		}
	}
	snap.firstStop = e.firstStop
	e.history = append(e.history, snap)

	for _, c := range e.compartments {
		c.apply(s)
	}
}

// UndoLastStep restores every compartment and the first stop to the state
// before the most recent ApplyStep.
func (e *Engine) UndoLastStep() {
	if len(e.history) == 0 {
		return
	}
	snap := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	for i, c := range e.compartments {
		cs := snap.compartments[i]
		c.n2.pp, c.he.pp = cs.n2pp, cs.hepp
		c.crushingPressure = cs.crushingPressure
		c.maxCrushingPressure = cs.maxCrushingPressure
		c.crushingOnsetTension = cs.crushingOnsetTension
		c.impermeable = cs.impermeable
		c.desaturationTime = cs.desaturationTime
	}
	e.firstStop = snap.firstStop
}

// toleratedAmbientPressureAt is the deepest tolerated ambient pressure
// (ata) across every compartment, evaluating the cubic (once first_stop
// is pinned) at depthPressure.
func (e *Engine) toleratedAmbientPressureAt(depthPressure float64) (float64, error) {
	maxP := 1.0
	diveMinutes := e.ctx.Duration()
	conservatismMult := conservatismMultiplier(e.conservatism)
	for _, c := range e.compartments {
		p, err := c.toleratedAmbientPressure(diveMinutes, conservatismMult, e.firstStop, depthPressure)
		if err != nil {
			return 0, fmt.Errorf("vpmb: tolerated ambient pressure: %w", err)
		}
		if p > maxP {
			maxP = p
		}
	}
	return maxP, nil
}

// ceilingAt is the ambient pressure (ata) the dive cannot yet ascend
// past, found as the fixed point p <- toleratedAmbientPressureAt(p),
// since once first_stop is pinned the cubic's depth term makes tolerated
// ambient pressure a function of itself.
func (e *Engine) ceilingAt(probeDepth float64) (float64, error) {
	p := probeDepth/10 + 1
	for i := 0; i < decompression.MaxIterations; i++ {
		next, err := e.toleratedAmbientPressureAt(p)
		if err != nil {
			return 0, err
		}
		if math.Abs(next-p) <= 0.01 {
			return next, nil
		}
		p = next
	}
	return 0, fmt.Errorf("vpmb: ceiling fixed point: %w", decompression.ErrNonConvergent)
}

// Ceiling returns the shallowest safe ascent depth in metres, never below
// 0, probed at depth (or the dive's current depth if depth is nil).
func (e *Engine) Ceiling(depth *float64) float64 {
	probeDepth := e.ctx.Depth()
	if depth != nil {
		probeDepth = *depth
	}
	p, err := e.ceilingAt(probeDepth)
	if err != nil {
		logger.Warn("ceiling calculation failed, treating as surfaced", "error", err)
		return 0
	}
	return math.Max(0, ataToDepth(p))
}

// CanSurface reports whether the dive currently tolerates ascent to the
// surface.
func (e *Engine) CanSurface() bool {
	return e.Ceiling(decompression.Depth(0)) <= 0
}

// FirstStop returns the first-stop depth (the rounded ceiling) VPM-B's
// critical-volume loop last pinned, if any.
func (e *Engine) FirstStop() (float64, bool) {
	if e.firstStop == nil {
		return 0, false
	}
	return *e.firstStop, true
}

// SetFirstStop pins the first-stop depth the allowable-gradient cubic is
// tied to.
func (e *Engine) SetFirstStop(depth float64) { e.firstStop = &depth }

// ClearFirstStop unpins the first-stop depth.
func (e *Engine) ClearFirstStop() { e.firstStop = nil }

// calculateStartOfDecoZone is the deepest, across every compartment, of
// each compartment's own bisected start-of-deco-zone depth: the point
// past which bubble formation first becomes possible for at least one
// compartment.
func (e *Engine) calculateStartOfDecoZone() float64 {
	maxDepth := e.ctx.Depth()
	start := 0.0
	for _, c := range e.compartments {
		if d := c.startOfDecoZone(maxDepth); d > start {
			start = d
		}
	}
	return start
}

// updateDesaturationTimes records, on every compartment, how long it
// would take to off-gas back to surface equilibrium from its current
// state: on its own N2 half-life above inspired N2 tension, on its He
// half-life within the helium-tension band below that, or instantly
// below both. decoPhaseVolumeTime is added on top, since the compartment
// has already spent that long in the decompression zone this pass.
func (e *Engine) updateDesaturationTimes(decoPhaseVolumeTime float64) {
	inspiredN2 := pulmonaryPP(1, gas.Air.Fraction(gas.Nitrogen))
	for _, c := range e.compartments {
		n2Tension, heTension := c.n2.pp, c.he.pp
		var surfacePhase float64
		switch {
		case n2Tension > inspiredN2:
			k := math.Ln2 / c.n2.coef.halfLife
			surfacePhase = math.Log(n2Tension/inspiredN2) / k
		case heTension > 0 && n2Tension > inspiredN2-heTension:
			k := math.Ln2 / c.he.coef.halfLife
			surfacePhase = math.Log((inspiredN2-n2Tension+heTension)/heTension) / k
		default:
			surfacePhase = 0
		}
		dt := decoPhaseVolumeTime + surfacePhase
		c.desaturationTime = &dt
	}
}

// walkToSurface ascends into firstStop (switching deco gases along the
// way) and then repeats the scheduler's find-stop-length/ascend-to-next
// pattern down to the surface, the same walk decompression.ProfileState
// runs after its own FindFirstStop — but VPM-B already pinned firstStop
// itself, so this skips straight to the walk rather than reusing
// decompression.Run, which would search for the first stop a second time.
func (e *Engine) walkToSurface(firstStop float64) []decompression.Stop {
	if e.ctx.Depth() > firstStop {
		e.scheduler.AscendCheckSwitch(firstStop)
	}

	var stops []decompression.Stop
	ascentTime := 0.0
	for e.ctx.Depth() > 0 {
		stops = append(stops, e.scheduler.FindStopLength(ascentTime))
		next := e.scheduler.NextStopDepth(e.ctx.Depth())
		steps := e.scheduler.AscendCheckSwitch(next)
		ascentTime = 0
		for _, st := range steps {
			ascentTime += st.Duration
		}
	}
	return stops
}

// criticalVolumeLoop ascends to the start of the decompression zone once,
// then on each pass pins first_stop directly from the rounded ceiling
// (spec.md §4.5's VPM-B scheduler override, rather than the generic
// FindFirstStop search), walks the dive to the surface, and — whenever
// the critical-volume adjustment (cva) is enabled and the deco-phase
// volume time (how long that walk just spent in the decompression zone)
// moved by more than a minute from the previous pass — feeds the updated
// desaturation times into the next pass's bottomAllowableGradient and
// repeats from a ctx.Reset() (undoing only the steps taken since the
// ascent to the start of the decompression zone).
func (e *Engine) criticalVolumeLoop() ([]decompression.Stop, error) {
	start := e.calculateStartOfDecoZone()
	ascended := false
	if e.ctx.Depth() > start {
		e.ctx.Ascend(start, e.ctx.DefaultAscentRate())
		ascended = true
	}

	lastDecoPhaseVolumeTime := 0.0
	for iter := 0; iter < maxCVAIterations; iter++ {
		e.ctx.SetInDecompression(true)
		timeAtStartOfDecoZone := e.ctx.Duration()

		ceiling := e.Ceiling(nil)
		firstStop := decompression.StopInterval*math.Ceil((ceiling-e.scheduler.LastStop)/decompression.StopInterval) + e.scheduler.LastStop
		if firstStop <= 0 {
			firstStop = 0
		}
		if firstStop > start {
			e.ctx.Reset()
			if ascended {
				e.ctx.UndoLastStep()
			}
			return nil, fmt.Errorf("vpmb: first stop %.1fm is below the start of the decompression zone at %.1fm: %w",
				firstStop, start, decompression.ErrStepTooLarge)
		}
		e.SetFirstStop(firstStop)

		stops := e.walkToSurface(firstStop)

		decoPhaseVolumeTime := e.ctx.Duration() - timeAtStartOfDecoZone
		e.updateDesaturationTimes(decoPhaseVolumeTime)

		if !e.cva || math.Abs(decoPhaseVolumeTime-lastDecoPhaseVolumeTime) <= 1.0 {
			return stops, nil
		}
		lastDecoPhaseVolumeTime = decoPhaseVolumeTime
		desaturationTimes := make([]*float64, len(e.compartments))
		for i, c := range e.compartments {
			desaturationTimes[i] = c.desaturationTime
		}
		e.ctx.Reset()
		for i, c := range e.compartments {
			c.desaturationTime = desaturationTimes[i]
		}
	}
	return nil, fmt.Errorf("vpmb: critical volume loop: %w", decompression.ErrNonConvergent)
}

// Decompress drains the critical-volume loop to a committed decompression
// profile.
func (e *Engine) Decompress() ([]decompression.Stop, error) {
	logger.Debug("running vpmb decompression", "conservatism", e.conservatism)
	return e.criticalVolumeLoop()
}
