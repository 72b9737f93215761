package buhlmann

import (
	"math"
	"testing"

	"github.com/sublayer/decoplan/decompression"
	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/step"
)

// mockCtx is a minimal decompression.DiveContext that drives a single
// Engine directly, standing in for the Dive ledger the real engine is
// normally registered with.
type mockCtx struct {
	depth      float64
	gas        *gas.Blend
	decoGases  map[float64]*gas.Blend
	ascentRate float64
	engine     *Engine
	history    []struct {
		depth float64
		gas   *gas.Blend
	}
}

func newMockCtx(depth float64, g *gas.Blend) *mockCtx {
	return &mockCtx{depth: depth, gas: g, decoGases: map[float64]*gas.Blend{}, ascentRate: 10}
}

func (m *mockCtx) push() {
	m.history = append(m.history, struct {
		depth float64
		gas   *gas.Blend
	}{m.depth, m.gas})
}

func (m *mockCtx) Depth() float64                          { return m.depth }
func (m *mockCtx) Gas() *gas.Blend                          { return m.gas }
func (m *mockCtx) Duration() float64                        { return 0 }
func (m *mockCtx) DecoGases() map[float64]*gas.Blend        { return m.decoGases }
func (m *mockCtx) DefaultAscentRate() float64               { return m.ascentRate }
func (m *mockCtx) SetInDecompression(bool)                  {}
func (m *mockCtx) Reset()                                   {}

func (m *mockCtx) Ascend(to, rate float64) step.Step {
	m.push()
	signedRate := rate
	if to < m.depth {
		signedRate = -rate
	}
	duration := 0.0
	if rate != 0 {
		duration = math.Abs(to-m.depth) / rate * 60
	}
	s := step.New(m.depth, m.gas, signedRate, duration)
	m.depth = to
	m.engine.ApplyStep(s)
	return s
}

func (m *mockCtx) Stay(minutes float64) step.Step {
	m.push()
	s := step.New(m.depth, m.gas, 0, minutes*60)
	m.engine.ApplyStep(s)
	return s
}

func (m *mockCtx) SwitchGas(g *gas.Blend, switchTimeMin float64) step.Step {
	m.push()
	s := step.New(m.depth, g, 0, switchTimeMin*60)
	m.gas = g
	m.engine.ApplyStep(s)
	return s
}

func (m *mockCtx) UndoLastStep() {
	if len(m.history) == 0 {
		return
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.depth = prev.depth
	m.gas = prev.gas
	m.engine.UndoLastStep()
}

func (m *mockCtx) UndoSteps(n int) {
	for i := 0; i < n; i++ {
		m.UndoLastStep()
	}
}

func newTestEngine(depth float64, g *gas.Blend) (*Engine, *mockCtx) {
	ctx := newMockCtx(depth, g)
	e := New(ctx, 0.3, 0.85, decompression.CeilingAtStartOfDeco)
	ctx.engine = e
	return e, ctx
}

func TestSchreinerEquationSteadyState(t *testing.T) {
	// A compartment already equilibrated to pi, held with rate 0, should
	// not move.
	k := math.Ln2 / 5.0
	got := schreinerEquation(0.8, 0.8, 0, 30, k)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("steady state compartment drifted to %f, want 0.8", got)
	}
}

func TestEngineAccumulatesCeilingOnDescent(t *testing.T) {
	e, ctx := newTestEngine(0, gas.Air)

	if e.Ceiling(nil) != 0 {
		t.Fatalf("fresh engine should have a zero ceiling, got %f", e.Ceiling(nil))
	}

	ctx.Ascend(40, 20) // descend to 40m
	ctx.Stay(30)       // 30 minute bottom time

	if ceiling := e.Ceiling(nil); ceiling <= 0 {
		t.Errorf("after a 40m/30min dive on air, expected a positive ceiling, got %f", ceiling)
	}
	if e.CanSurface() {
		t.Errorf("expected CanSurface to be false after a decompression-obligation dive")
	}
}

func TestEngineApplyUndoRoundTrips(t *testing.T) {
	e, ctx := newTestEngine(0, gas.Air)
	ctx.Ascend(30, 20)
	before := e.Ceiling(nil)

	ctx.Stay(20)
	ctx.UndoLastStep()

	after := e.Ceiling(nil)
	if math.Abs(before-after) > 1e-9 {
		t.Errorf("ceiling after apply+undo = %f, want %f", after, before)
	}
}

func TestGradientFactorSchedule(t *testing.T) {
	e, _ := newTestEngine(0, gas.Air)
	e.SetFirstStop(18)

	if gf := e.gf(0); math.Abs(gf-e.highGF) > 1e-9 {
		t.Errorf("gf(0) = %f, want high_gf %f", gf, e.highGF)
	}
	if gf := e.gf(18); math.Abs(gf-e.lowGF) > 1e-9 {
		t.Errorf("gf(first stop) = %f, want low_gf %f", gf, e.lowGF)
	}
	if gf := e.gf(30); math.Abs(gf-e.lowGF) > 1e-9 {
		t.Errorf("gf(below first stop) = %f, want low_gf %f", gf, e.lowGF)
	}
	mid := e.gf(9)
	if mid <= e.lowGF || mid >= e.highGF {
		t.Errorf("gf(9) = %f, want strictly between low_gf and high_gf", mid)
	}

	e.ClearFirstStop()
	if gf := e.gf(18); math.Abs(gf-e.highGF) > 1e-9 {
		t.Errorf("gf with no first stop pinned = %f, want high_gf", gf)
	}
}

func TestEngineDecompressProducesDescendingStops(t *testing.T) {
	e, ctx := newTestEngine(0, gas.Air)
	ctx.Ascend(45, 20)
	ctx.Stay(25)

	stops, err := e.Decompress()
	if err != nil {
		t.Fatalf("Decompress returned error: %v", err)
	}
	if len(stops) == 0 {
		t.Fatalf("expected at least one decompression stop after a 45m/25min dive")
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Depth >= stops[i-1].Depth {
			t.Errorf("stop %d depth %f should be shallower than stop %d depth %f",
				i, stops[i].Depth, i-1, stops[i-1].Depth)
		}
	}
	if ctx.Depth() != 0 {
		t.Errorf("dive should have surfaced after Decompress, depth = %f", ctx.Depth())
	}
}
