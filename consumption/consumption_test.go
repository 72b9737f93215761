package consumption

import (
	"math"
	"testing"

	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/step"
)

func TestApplyStepAccumulatesByPressure(t *testing.T) {
	m := New(20) // 20 l/min SAC rate
	s := step.New(20, gas.Air, 0, 10*60) // 10 minutes at 20m, ambient pressure 3 ata

	m.ApplyStep(s)

	want := 20 * 10 * 3 * gas.Air.Compressibility(3) / gas.Air.Compressibility(1)
	if got := m.VolumeFor(gas.Air); math.Abs(got-want) > 1e-6 {
		t.Errorf("VolumeFor(air) = %f, want %f", got, want)
	}
}

func TestApplyStepCombinesEqualBlends(t *testing.T) {
	m := New(20)
	air2, err := gas.New(map[string]float64{"oxygen": 0.2098, "nitrogen": 0.7902})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.ApplyStep(step.New(10, gas.Air, 0, 5*60))
	m.ApplyStep(step.New(10, air2, 0, 5*60))

	if len(m.Blends()) != 1 {
		t.Fatalf("expected a single combined blend bucket, got %d", len(m.Blends()))
	}
	if m.TotalVolume() != m.VolumeFor(gas.Air) {
		t.Errorf("TotalVolume() = %f, VolumeFor(air) = %f, want equal", m.TotalVolume(), m.VolumeFor(gas.Air))
	}
}

func TestApplyStepSeparatesDistinctBlends(t *testing.T) {
	m := New(20)
	ean32, err := gas.New(map[string]float64{"oxygen": 0.32, "nitrogen": 0.68})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.ApplyStep(step.New(20, gas.Air, 0, 5*60))
	m.ApplyStep(step.New(20, ean32, 0, 5*60))

	if len(m.Blends()) != 2 {
		t.Fatalf("expected two distinct blend buckets, got %d", len(m.Blends()))
	}
}

func TestUndoLastStep(t *testing.T) {
	m := New(20)
	m.ApplyStep(step.New(10, gas.Air, 0, 5*60))
	m.UndoLastStep()
	if m.TotalVolume() != 0 {
		t.Errorf("TotalVolume() after undo = %f, want 0", m.TotalVolume())
	}
}
