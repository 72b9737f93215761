package dive

import (
	"math"
	"testing"

	"github.com/sublayer/decoplan/buhlmann"
	"github.com/sublayer/decoplan/consumption"
	"github.com/sublayer/decoplan/decompression"
	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/oxtox"
)

func trimix(o2, he float64) *gas.Blend {
	return gas.MustNew(map[string]float64{
		"oxygen":   o2,
		"helium":   he,
		"nitrogen": 1 - o2 - he,
	})
}

func newTestDive() *Dive {
	d := New(trimix(0.21, 0.35))
	d.SetDefaultDescentRate(20)
	d.SetDefaultAscentRate(10)
	d.AddDecoGas(21, gas.MustNew(map[string]float64{"oxygen": 0.50, "nitrogen": 0.50}))
	d.AddDecoGas(6, gas.MustNew(map[string]float64{"oxygen": 1.0}))
	e := buhlmann.New(d, 0.3, 0.85, decompression.FirstActualStop)
	d.SetEngine(e)
	d.Register("cns", oxtox.NewCNS())
	d.Register("pulmonary", oxtox.NewPulmonary())
	d.Register("consumption", consumption.New(20))
	return d
}

func TestDescendAscendUpdatesDepthAndKind(t *testing.T) {
	d := newTestDive()
	s := d.Descend(40, 0)
	if s.EndDepth() != 40 {
		t.Fatalf("EndDepth() = %v, want 40", s.EndDepth())
	}
	if d.Depth() != 40 {
		t.Fatalf("Depth() = %v, want 40", d.Depth())
	}
	if d.steps[len(d.steps)-1].Kind != KindDescend {
		t.Fatalf("Kind = %v, want KindDescend", d.steps[len(d.steps)-1].Kind)
	}

	d.Stay(20)

	d.Ascend(20, 0)
	if d.Depth() != 20 {
		t.Fatalf("Depth() = %v, want 20", d.Depth())
	}
	if d.steps[len(d.steps)-1].Kind != KindAscend {
		t.Fatalf("Kind = %v, want KindAscend", d.steps[len(d.steps)-1].Kind)
	}
}

func TestTransitionToSameDepthIsNeitherAscentNorDescent(t *testing.T) {
	d := newTestDive()
	d.Descend(30, 0)
	before := len(d.steps)
	d.Descend(30, 0)
	if len(d.steps) != before+1 {
		t.Fatalf("expected a step to be committed even for a zero-depth-change transition")
	}
	last := d.steps[len(d.steps)-1]
	if last.Step.Rate != 0 {
		t.Fatalf("Rate = %v, want 0 for a same-depth transition", last.Step.Rate)
	}
}

func TestSwitchGasUpdatesCurrentGas(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(10)
	d.Ascend(21, 0)

	deco := gas.MustNew(map[string]float64{"oxygen": 0.50, "nitrogen": 0.50})
	d.SwitchGas(deco, 1)
	if !d.Gas().Equal(deco) {
		t.Fatalf("Gas() = %v, want %v", d.Gas(), deco)
	}
	if d.steps[len(d.steps)-1].Kind != KindSwitchGas {
		t.Fatalf("Kind = %v, want KindSwitchGas", d.steps[len(d.steps)-1].Kind)
	}
}

func TestUndoLastStepRestoresDepthAndGas(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(20)
	depthBefore := d.Depth()

	d.Ascend(20, 0)
	d.UndoLastStep()

	if d.Depth() != depthBefore {
		t.Fatalf("Depth() after undo = %v, want %v", d.Depth(), depthBefore)
	}
	if len(d.steps) != 2 {
		t.Fatalf("len(steps) after undo = %d, want 2", len(d.steps))
	}
}

func TestUndoStepsRemovesMultiple(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(20)
	d.Ascend(20, 0)
	d.Stay(1)

	d.UndoSteps(2)
	if len(d.steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(d.steps))
	}
}

func TestResetLeavesBottomProfileAndOnlyUndoesDeco(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(20)
	bottomSteps := len(d.steps)
	bottomDepth := d.Depth()
	bottomGas := d.Gas()

	d.SetInDecompression(true)
	d.Ascend(21, 0)
	d.Stay(3)
	if len(d.decoSteps) == 0 {
		t.Fatalf("expected decompression-phase steps to be logged before Reset")
	}

	d.Reset()

	if len(d.decoSteps) != 0 {
		t.Fatalf("len(decoSteps) after reset = %d, want 0", len(d.decoSteps))
	}
	if len(d.steps) != bottomSteps {
		t.Fatalf("len(steps) after reset = %d, want %d (bottom profile untouched)", len(d.steps), bottomSteps)
	}
	if d.Depth() != bottomDepth {
		t.Fatalf("Depth() after reset = %v, want %v (back to end of bottom profile)", d.Depth(), bottomDepth)
	}
	if !d.Gas().Equal(bottomGas) {
		t.Fatalf("Gas() after reset = %v, want %v", d.Gas(), bottomGas)
	}
	if d.InDecompression() {
		t.Fatalf("InDecompression() after reset = true, want false")
	}
	if first, ok := d.Engine().FirstStop(); ok {
		t.Fatalf("FirstStop() after reset = (%v, true), want cleared", first)
	}
}

func TestReinterpolateSplitsLongStepsAndPreservesTotalDuration(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(20)

	nd := d.Reinterpolate(300, false)

	if got, want := nd.Duration(), d.Duration(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Duration() after reinterpolate = %v, want %v", got, want)
	}
	if nd.Depth() != d.Depth() {
		t.Fatalf("Depth() after reinterpolate = %v, want %v", nd.Depth(), d.Depth())
	}
	for _, ls := range nd.Steps() {
		if ls.Step.Duration > 300+1e-9 {
			t.Fatalf("reinterpolated step duration = %v, want <= 300", ls.Step.Duration)
		}
	}
	if len(nd.Steps()) <= len(d.Steps()) {
		t.Fatalf("expected reinterpolate to split the 20 minute stay into multiple steps, got %d steps (was %d)",
			len(nd.Steps()), len(d.Steps()))
	}
}

func TestReinterpolateDropsDecoStepsWhenNotIncluded(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(10)
	d.SetInDecompression(true)
	d.Ascend(10, 0)
	d.Stay(5)

	without := d.Reinterpolate(60, false)
	if len(without.DecoSteps()) != 0 {
		t.Fatalf("DecoSteps() with includeDeco=false = %d steps, want 0", len(without.DecoSteps()))
	}

	with := d.Reinterpolate(60, true)
	if len(with.DecoSteps()) == 0 {
		t.Fatalf("DecoSteps() with includeDeco=true is empty, want the split decompression log")
	}
	if !with.InDecompression() {
		t.Fatalf("InDecompression() with includeDeco=true = false, want true")
	}
}

func TestDecompressProducesAscendingStopsToSurface(t *testing.T) {
	d := newTestDive()
	d.Descend(40, 0)
	d.Stay(25)
	d.Ascend(d.Engine().Ceiling(nil), 0)

	stops, err := d.Decompress()
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if len(stops) == 0 {
		t.Fatalf("Decompress() returned no stops for a dive requiring decompression")
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Depth > stops[i-1].Depth {
			t.Fatalf("stop %d deeper than stop %d: %v > %v", i, i-1, stops[i].Depth, stops[i-1].Depth)
		}
	}
	if got := d.DecompressionSteps(); len(got) != len(stops) {
		t.Fatalf("DecompressionSteps() len = %d, want %d", len(got), len(stops))
	}
}

func TestDecompressWithoutEngineErrors(t *testing.T) {
	d := New(gas.Air)
	if _, err := d.Decompress(); err == nil {
		t.Fatalf("Decompress() with no registered engine should error")
	}
}

func TestMarkdownRendersEveryStep(t *testing.T) {
	d := newTestDive()
	d.Descend(30, 0)
	d.Stay(10)
	d.Ascend(0, 0)

	md := d.Markdown()
	if md == "" {
		t.Fatalf("Markdown() returned empty string")
	}
	lineCount := 0
	for _, c := range md {
		if c == '\n' {
			lineCount++
		}
	}
	// header + separator + 3 steps
	if lineCount < 5 {
		t.Fatalf("Markdown() rendered %d lines, want at least 5", lineCount)
	}
}

func TestCommitForwardsToEveryRegisteredModel(t *testing.T) {
	d := newTestDive()
	cons := consumption.New(20)
	d.Register("extra_consumption", cons)

	d.Descend(30, 0)
	d.Stay(20)

	if cons.TotalVolume() <= 0 {
		t.Fatalf("TotalVolume() = %v, want > 0 after a stay at depth", cons.TotalVolume())
	}
}
