package decompression

import (
	"fmt"
	"math"

	"github.com/sublayer/decoplan/step"
)

// Scheduler defaults, spec.md §4.5.
const (
	DefaultLastStop                 = 6.0
	DefaultGasSwitchTime            = 1.0 // minutes
	DefaultIncludeAscentToStopInStop = true
	DefaultAscendBeforeCeilingCheck  = true
	DefaultSwitchOnlyAtRequiredStop  = false
	StopInterval                     = 3.0
)

// CeilingProvider is the subset of Engine the scheduler needs to probe
// ceilings and pin the gradient-factor first stop; Bühlmann and VPM-B each
// implement it directly.
type CeilingProvider interface {
	Ceiling(depth *float64) float64
	CanSurface() bool
	FirstStop() (float64, bool)
	SetFirstStop(depth float64)
}

// Scheduler is the reusable first-stop search, stop-length bisection and
// ascent-with-switches machinery of spec.md §4.5. Bühlmann drives it
// directly (see buhlmann.Engine.Decompress); VPM-B wraps it with the
// critical-volume loop but calls the same CanAscend/AscendCheckSwitch/
// FindStopLength helpers for its inner stepping.
type Scheduler struct {
	Ctx      DiveContext
	Provider CeilingProvider

	LastStop                  float64
	Anchor                    FirstStopAnchor
	GasSwitchTime             float64
	IncludeAscentToStopInStop bool
	AscendBeforeCeilingCheck  bool
	SwitchOnlyAtRequiredStop  bool
}

// NewScheduler builds a Scheduler with spec.md's default configuration.
func NewScheduler(ctx DiveContext, provider CeilingProvider) *Scheduler {
	return &Scheduler{
		Ctx:                       ctx,
		Provider:                  provider,
		LastStop:                  DefaultLastStop,
		Anchor:                    CeilingAtStartOfDeco,
		GasSwitchTime:             DefaultGasSwitchTime,
		IncludeAscentToStopInStop: DefaultIncludeAscentToStopInStop,
		AscendBeforeCeilingCheck:  DefaultAscendBeforeCeilingCheck,
		SwitchOnlyAtRequiredStop:  DefaultSwitchOnlyAtRequiredStop,
	}
}

// NextSwitch returns the deepest deco_gases key strictly shallower than the
// current depth, i.e. the next gas switch on the way up.
func (s *Scheduler) NextSwitch() (float64, bool) {
	depth := s.Ctx.Depth()
	found := false
	var best float64
	for d := range s.Ctx.DecoGases() {
		if d < depth && (!found || d > best) {
			best, found = d, true
		}
	}
	return best, found
}

// LastSwitch returns the shallowest deco_gases key at or above the current
// depth, i.e. the gas that should already be in use.
func (s *Scheduler) LastSwitch() (float64, bool) {
	depth := s.Ctx.Depth()
	found := false
	var best float64
	for d := range s.Ctx.DecoGases() {
		if d >= depth && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}

// NextStopDepth rounds down from currentStop to the next standard stop
// depth, spaced StopInterval apart and offset by LastStop, or 0 once at or
// below LastStop.
func (s *Scheduler) NextStopDepth(currentStop float64) float64 {
	if currentStop > s.LastStop {
		return StopInterval*math.Ceil((currentStop-s.LastStop)/StopInterval) + s.LastStop - StopInterval
	}
	return 0
}

// AscendCheckSwitch ascends to depth, performing any gas switches the
// deco_gases map requires along the way (or just the one at depth, if
// SwitchOnlyAtRequiredStop), and returns the steps it committed so callers
// can undo exactly that many.
func (s *Scheduler) AscendCheckSwitch(depth float64) []step.Step {
	rate := s.Ctx.DefaultAscentRate()
	var steps []step.Step

	if s.SwitchOnlyAtRequiredStop {
		steps = append(steps, s.Ctx.Ascend(depth, rate))
		if last, ok := s.LastSwitch(); ok {
			g := s.Ctx.DecoGases()[last]
			if !s.Ctx.Gas().Equal(g) {
				steps = append(steps, s.Ctx.SwitchGas(g, s.GasSwitchTime))
			}
		}
		return steps
	}

	switchDepth, ok := s.NextSwitch()
	for ok && depth < switchDepth {
		steps = append(steps, s.Ctx.Ascend(switchDepth, rate))
		steps = append(steps, s.Ctx.SwitchGas(s.Ctx.DecoGases()[switchDepth], s.GasSwitchTime))
		switchDepth, ok = s.NextSwitch()
	}
	steps = append(steps, s.Ctx.Ascend(depth, rate))
	if ok && depth == switchDepth {
		steps = append(steps, s.Ctx.SwitchGas(s.Ctx.DecoGases()[switchDepth], s.GasSwitchTime))
	}
	return steps
}

// CanAscend reports whether the dive can safely ascend to depth, either by
// probing the ascent and undoing it (AscendBeforeCeilingCheck) or by
// checking the ceiling at depth directly.
func (s *Scheduler) CanAscend(depth float64) bool {
	if depth == s.Ctx.Depth() {
		return true
	}

	var ok bool
	if s.AscendBeforeCeilingCheck {
		steps := s.AscendCheckSwitch(depth)
		ok = s.Provider.Ceiling(&depth) <= depth
		s.Ctx.UndoSteps(len(steps))
	} else {
		ok = s.Provider.Ceiling(&depth) <= depth
	}
	logger.Debug("can ascend", "to", depth, "from", s.Ctx.Depth(), "ok", ok)
	return ok
}

// FindFirstStop locates the first decompression stop, pins the engine's
// gradient-factor first_stop per Anchor, and commits the ascent to it.
func (s *Scheduler) FindFirstStop() error {
	ceiling := s.Provider.Ceiling(nil)
	if s.Anchor == CeilingAtStartOfDeco {
		s.Provider.SetFirstStop(ceiling)
	}
	currentCeiling := math.Ceil(ceiling/StopInterval) * StopInterval
	if s.Anchor == RoundedCeilingAtStartOfDeco {
		s.Provider.SetFirstStop(currentCeiling)
	}

	for i := 0; ; i++ {
		if i >= MaxIterations {
			return fmt.Errorf("finding first stop: %w", ErrNonConvergent)
		}
		if !s.CanAscend(currentCeiling) {
			break
		}
		steps := s.AscendCheckSwitch(currentCeiling)
		exactCeiling := s.Provider.Ceiling(nil)
		newCeiling := math.Ceil(exactCeiling/StopInterval) * StopInterval
		s.Ctx.UndoSteps(len(steps))
		if newCeiling == currentCeiling {
			break
		}
		currentCeiling = newCeiling
	}

	next := s.NextStopDepth(currentCeiling)
	if s.CanAscend(next) {
		s.AscendCheckSwitch(next)
	} else {
		s.AscendCheckSwitch(currentCeiling)
	}

	if s.Anchor == FirstActualStop {
		s.Provider.SetFirstStop(currentCeiling)
	}
	return nil
}

// FindStopLength bisects the length, in minutes, of the stop at the
// current depth, given ascentTimeSeconds already spent ascending into it.
func (s *Scheduler) FindStopLength(ascentTimeSeconds float64) Stop {
	ascentTime := 0.0
	if s.IncludeAscentToStopInStop {
		ascentTime = ascentTimeSeconds / 60
	}
	currentStop := s.Ctx.Depth()
	nextStop := s.NextStopDepth(currentStop)

	ts := -ascentTime
	dt := 64.0
	s.Ctx.Stay(ts + dt)
	for !s.CanAscend(nextStop) {
		s.Ctx.UndoLastStep()
		ts += dt
		s.Ctx.Stay(ts + dt)
	}

	s.Ctx.UndoLastStep()
	dt /= 2
	s.Ctx.Stay(ts + dt)
	for dt > 1 {
		if !s.CanAscend(nextStop) {
			ts += dt
		}
		dt /= 2
		s.Ctx.UndoLastStep()
		s.Ctx.Stay(ts + dt)
	}
	if !s.CanAscend(nextStop) {
		ts += dt
		s.Ctx.UndoLastStep()
		s.Ctx.Stay(ts + dt)
	}

	return Stop{Depth: currentStop, Duration: ts + dt + ascentTime, Gas: s.Ctx.Gas()}
}

// ProfileState drives the scheduler one stop at a time, the
// "next_stop() -> Option<Stop>" shape spec.md §9 calls for in a language
// without generators. Run drains it to a committed slice.
type ProfileState struct {
	scheduler  *Scheduler
	started    bool
	done       bool
	ascentTime float64
}

// NewProfileState wraps s in a stop-at-a-time producer.
func NewProfileState(s *Scheduler) *ProfileState {
	return &ProfileState{scheduler: s}
}

// Next produces the next decompression stop, or ok=false once the dive has
// surfaced.
func (p *ProfileState) Next() (Stop, bool, error) {
	if p.done {
		return Stop{}, false, nil
	}

	if !p.started {
		p.started = true
		p.scheduler.Ctx.SetInDecompression(true)
		if p.scheduler.Provider.CanSurface() {
			p.scheduler.Ctx.Ascend(0, p.scheduler.Ctx.DefaultAscentRate())
			p.done = true
			return Stop{}, false, nil
		}
		if err := p.scheduler.FindFirstStop(); err != nil {
			return Stop{}, false, err
		}
	}

	if p.scheduler.Ctx.Depth() <= 0 {
		p.done = true
		return Stop{}, false, nil
	}

	stop := p.scheduler.FindStopLength(p.ascentTime)
	next := p.scheduler.NextStopDepth(p.scheduler.Ctx.Depth())
	steps := p.scheduler.AscendCheckSwitch(next)
	p.ascentTime = 0
	for _, st := range steps {
		p.ascentTime += st.Duration
	}
	return stop, true, nil
}

// Run drains a ProfileState to completion.
func Run(s *Scheduler) ([]Stop, error) {
	p := NewProfileState(s)
	var stops []Stop
	for {
		stop, ok, err := p.Next()
		if err != nil {
			return stops, err
		}
		if !ok {
			return stops, nil
		}
		stops = append(stops, stop)
	}
}
