// Package dive implements Dive, the reversible step ledger spec.md builds
// every model around: a sequence of descent/stay/ascent/gas-switch steps
// that every registered observer (a decompression engine, oxygen
// toxicity, gas consumption) applies and can undo in lock-step. Dive
// implements decompression.DiveContext so engines never import this
// package directly, avoiding the import cycle the Python original's
// dynamic attribute access papers over.
package dive

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sublayer/decoplan/decompression"
	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/helpers"
	"github.com/sublayer/decoplan/step"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) { logger = l }

// Kind tags a logged step with what it represents, for Markdown's glyphs.
type Kind int

const (
	KindDescend Kind = iota
	KindStay
	KindAscend
	KindSwitchGas
)

// Glyph is the single-character marker spec.md's markdown rendering uses
// per step kind: descend ➘, stay ■, ascend ➚, gas switch ➙.
func (k Kind) Glyph() string {
	switch k {
	case KindDescend:
		return "➘"
	case KindAscend:
		return "➚"
	case KindSwitchGas:
		return "➙"
	default:
		return "■"
	}
}

// LoggedStep pairs a committed step.Step with the Kind it was logged as.
type LoggedStep struct {
	step.Step
	Kind Kind
}

// Dive is the reversible ledger of a single dive: its committed steps,
// its current depth and gas, the registered deco gases available for gas
// switches, and every Model observing it. Bottom-phase and
// decompression-phase steps are kept as two append-only lists, routed by
// inDecompression, so Reset can unwind the decompression profile alone
// and leave the bottom profile it was computed from intact.
type Dive struct {
	steps              []LoggedStep
	decoSteps          []LoggedStep
	decompressionSteps []decompression.Stop
	inDecompression    bool

	depth      float64
	gasCur     *gas.Blend
	initialGas *gas.Blend

	defaultDescentRate float64
	defaultAscentRate  float64
	decoGases          map[float64]*gas.Blend

	models map[string]decompression.Model
	engine decompression.Engine
}

// New starts a Dive at the surface breathing startGas, with the default
// descent and ascent rates both at 10 metres/minute.
func New(startGas *gas.Blend) *Dive {
	return &Dive{
		gasCur:             startGas,
		initialGas:         startGas,
		defaultDescentRate: 10,
		defaultAscentRate:  10,
		decoGases:          map[float64]*gas.Blend{},
		models:             map[string]decompression.Model{},
	}
}

// Register adds m as a named observer: every future ApplyStep/UndoLastStep
// call on the dive is forwarded to it.
func (d *Dive) Register(name string, m decompression.Model) { d.models[name] = m }

// SetEngine registers e as the dive's decompression engine; e is also
// registered as a Model under the name "decompression" and Decompress
// delegates to it.
func (d *Dive) SetEngine(e decompression.Engine) {
	d.engine = e
	d.Register("decompression", e)
}

// Engine returns the dive's registered decompression engine, if any.
func (d *Dive) Engine() decompression.Engine { return d.engine }

// AddDecoGas registers g as available for a gas switch once the dive
// ascends to depth or shallower.
func (d *Dive) AddDecoGas(depth float64, g *gas.Blend) { d.decoGases[depth] = g }

// SetDefaultDescentRate overrides the rate Descend uses when called with
// rate 0.
func (d *Dive) SetDefaultDescentRate(rate float64) { d.defaultDescentRate = rate }

// SetDefaultAscentRate overrides the rate Ascend and the scheduler use
// when called with rate 0.
func (d *Dive) SetDefaultAscentRate(rate float64) { d.defaultAscentRate = rate }

// Depth is the dive's current depth in metres.
func (d *Dive) Depth() float64 { return d.depth }

// Gas is the gas currently being breathed.
func (d *Dive) Gas() *gas.Blend { return d.gasCur }

// Duration is the elapsed dive time in minutes across every committed
// step, bottom phase and decompression phase alike.
func (d *Dive) Duration() float64 {
	total := 0.0
	for _, s := range d.steps {
		total += s.Minutes()
	}
	for _, s := range d.decoSteps {
		total += s.Minutes()
	}
	return total
}

// DecoGases is the depth-keyed map of gases available for switches.
func (d *Dive) DecoGases() map[float64]*gas.Blend { return d.decoGases }

// DefaultAscentRate is the rate, in metres/minute, the scheduler uses
// when it ascends the dive.
func (d *Dive) DefaultAscentRate() float64 { return d.defaultAscentRate }

// InDecompression reports whether the dive has entered its
// decompression phase.
func (d *Dive) InDecompression() bool { return d.inDecompression }

// SetInDecompression marks whether the dive has entered its
// decompression phase.
func (d *Dive) SetInDecompression(v bool) { d.inDecompression = v }

// Steps returns the dive's committed bottom-phase step log.
func (d *Dive) Steps() []LoggedStep { return d.steps }

// DecoSteps returns the dive's committed decompression-phase step log.
func (d *Dive) DecoSteps() []LoggedStep { return d.decoSteps }

// DecompressionSteps returns the most recently computed decompression
// profile, or nil if Decompress has not been called.
func (d *Dive) DecompressionSteps() []decompression.Stop { return d.decompressionSteps }

func (d *Dive) commit(s step.Step, kind Kind) step.Step {
	logged := LoggedStep{Step: s, Kind: kind}
	if d.inDecompression {
		d.decoSteps = append(d.decoSteps, logged)
	} else {
		d.steps = append(d.steps, logged)
	}
	d.depth = s.EndDepth()
	for _, m := range d.models {
		m.ApplyStep(s)
	}
	return s
}

func (d *Dive) transition(to, rate float64) step.Step {
	rate = math.Abs(rate)
	signedRate := helpers.DescOrAsc(d.depth, to) * rate
	kind := KindDescend
	if signedRate < 0 {
		kind = KindAscend
	}
	duration := 0.0
	if rate != 0 {
		duration = math.Abs(to-d.depth) / rate * 60
	}
	s := step.New(d.depth, d.gasCur, signedRate, duration)
	return d.commit(s, kind)
}

// Descend moves the dive to depth to at rate metres/minute (or the
// default descent rate if rate is 0).
func (d *Dive) Descend(to, rate float64) step.Step {
	if rate == 0 {
		rate = d.defaultDescentRate
	}
	return d.transition(to, rate)
}

// Ascend moves the dive to depth to at rate metres/minute, satisfying
// decompression.DiveContext.
func (d *Dive) Ascend(to, rate float64) step.Step {
	if rate == 0 {
		rate = d.defaultAscentRate
	}
	return d.transition(to, rate)
}

// Stay holds the dive at its current depth for minutes.
func (d *Dive) Stay(minutes float64) step.Step {
	s := step.New(d.depth, d.gasCur, 0, minutes*60)
	return d.commit(s, KindStay)
}

// SwitchGas switches the dive's breathing gas to g, charging
// switchTimeMin minutes at the current depth.
func (d *Dive) SwitchGas(g *gas.Blend, switchTimeMin float64) step.Step {
	if existing, ok := d.decoGases[d.depth]; ok && !existing.Equal(g) {
		logger.Warn("switching to a gas not registered at this depth", "depth", d.depth)
	}
	d.gasCur = g
	s := step.New(d.depth, g, 0, switchTimeMin*60)
	return d.commit(s, KindSwitchGas)
}

// UndoLastStep removes the most recently committed step, restoring the
// dive's depth and gas, and calling UndoLastStep on every registered
// Model. It undoes from the decompression-phase log while the dive is in
// decompression and that log is non-empty, and from the bottom-phase log
// otherwise, mirroring the routing commit uses to append.
func (d *Dive) UndoLastStep() {
	var list *[]LoggedStep
	switch {
	case d.inDecompression && len(d.decoSteps) > 0:
		list = &d.decoSteps
	case len(d.steps) > 0:
		list = &d.steps
	default:
		return
	}

	steps := *list
	last := steps[len(steps)-1]
	*list = steps[:len(steps)-1]
	d.depth = last.StartDepth

	switch {
	case len(d.decoSteps) > 0:
		d.gasCur = d.decoSteps[len(d.decoSteps)-1].Gas
	case len(d.steps) > 0:
		d.gasCur = d.steps[len(d.steps)-1].Gas
	default:
		d.gasCur = d.initialGas
	}

	for _, m := range d.models {
		m.UndoLastStep()
	}
}

// UndoSteps removes the n most recently committed steps.
func (d *Dive) UndoSteps(n int) {
	for i := 0; i < n; i++ {
		d.UndoLastStep()
	}
}

// Reset undoes only the decompression-phase steps, clears in_decompression
// and the stored decompression profile, and clears the engine's pinned
// first stop, leaving the bottom profile that produced it untouched. Use
// it between critical-volume iterations, where a new decompression
// profile must be recomputed from the same bottom dive.
func (d *Dive) Reset() {
	for len(d.decoSteps) > 0 {
		d.UndoLastStep()
	}
	d.inDecompression = false
	d.decompressionSteps = nil
	if d.engine != nil {
		d.engine.ClearFirstStop()
	}
}

// Reinterpolate rebuilds the dive as a new Dive whose steps are each at
// most intervalSeconds long, splitting any longer step into equal chunks
// plus a final remainder chunk. includeDeco selects whether the
// decompression-phase log is carried into the rebuilt dive (in
// decompression) or dropped, leaving only the bottom profile. The
// returned Dive has no engine or models registered; callers that need
// them re-register against the result.
func (d *Dive) Reinterpolate(intervalSeconds float64, includeDeco bool) *Dive {
	nd := New(d.initialGas)
	nd.defaultDescentRate = d.defaultDescentRate
	nd.defaultAscentRate = d.defaultAscentRate
	for depth, g := range d.decoGases {
		nd.AddDecoGas(depth, g)
	}

	for _, ls := range d.steps {
		for _, chunk := range splitStep(ls.Step, intervalSeconds) {
			nd.commit(chunk, ls.Kind)
		}
	}

	if includeDeco {
		nd.inDecompression = true
		for _, ls := range d.decoSteps {
			for _, chunk := range splitStep(ls.Step, intervalSeconds) {
				nd.commit(chunk, ls.Kind)
			}
		}
	}

	return nd
}

// splitStep divides s into chunks of at most intervalSeconds, always
// ending with a final chunk of whatever remains (a full interval when the
// duration is an exact multiple; zero-length only for a zero-length step),
// so the chunk boundaries are evenly spaced from the start of the step.
func splitStep(s step.Step, intervalSeconds float64) []step.Step {
	if intervalSeconds <= 0 {
		return []step.Step{s}
	}

	var chunks []step.Step
	depth := s.StartDepth
	remaining := s.Duration
	for remaining > intervalSeconds {
		chunks = append(chunks, step.New(depth, s.Gas, s.Rate, intervalSeconds))
		depth += s.Rate * intervalSeconds / 60
		remaining -= intervalSeconds
	}
	chunks = append(chunks, step.New(depth, s.Gas, s.Rate, remaining))
	return chunks
}

// Decompress drives the registered engine to a full decompression
// profile and stores it as DecompressionSteps.
func (d *Dive) Decompress() ([]decompression.Stop, error) {
	if d.engine == nil {
		return nil, fmt.Errorf("dive: no decompression engine registered")
	}
	stops, err := d.engine.Decompress()
	if err != nil {
		return nil, err
	}
	d.decompressionSteps = stops
	return stops, nil
}

// formatClock renders a duration given in seconds as HH:MM:SS.
func formatClock(seconds float64) string {
	total := int64(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Markdown renders the dive's bottom and decompression step logs as a
// single markdown table: step type glyph, depth, duration and cumulative
// runtime (both HH:MM:SS) and gas.
func (d *Dive) Markdown() string {
	var sb strings.Builder
	sb.WriteString("| | Depth | Duration | Runtime | Gas |\n|---|---|---|---|---|\n")

	runtime := 0.0
	row := func(ls LoggedStep) {
		runtime += ls.Step.Duration
		fmt.Fprintf(&sb, "| %s | %.1fm | %s | %s | %s |\n",
			ls.Kind.Glyph(), ls.EndDepth(), formatClock(ls.Step.Duration), formatClock(runtime), ls.Gas)
	}

	for _, ls := range d.steps {
		row(ls)
	}
	for _, ls := range d.decoSteps {
		row(ls)
	}
	return sb.String()
}
