// Package fixtures builds the five reference dive profiles used across
// both decompression engines' regression tests: a no-stop recreational
// dive, a single-stop nitrox dive, a short trimix dive, a deeper trimix
// dive with a non-default gradient-factor pair, and a multi-level dive
// with a yo-yo profile.
package fixtures

import (
	"fmt"

	"github.com/sublayer/decoplan/buhlmann"
	"github.com/sublayer/decoplan/decompression"
	"github.com/sublayer/decoplan/dive"
	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/vpmb"
)

// Model names the decompression engine a reference dive should be built
// with.
type Model int

const (
	BuhlmannZHL16C Model = iota
	VPMB
)

func deco50() *gas.Blend {
	return gas.MustNew(map[string]float64{"oxygen": 0.5, "nitrogen": 0.5})
}

func attachEngine(d *dive.Dive, model Model, lowGF, highGF float64, conservatism float64) {
	switch model {
	case BuhlmannZHL16C:
		d.SetEngine(buhlmann.New(d, lowGF, highGF, decompression.CeilingAtStartOfDeco))
	case VPMB:
		d.SetEngine(vpmb.New(d, conservatism))
	default:
		panic(fmt.Sprintf("fixtures: unknown model %d", model))
	}
}

// ReferenceDive builds one of the five canonical dive profiles (numbered
// 1-5) against the given decompression model. It panics on an unknown
// number or model, since both are always call-site constants in tests.
func ReferenceDive(number int, model Model) *dive.Dive {
	switch number {
	case 1:
		d := dive.New(gas.Air)
		d.SetDefaultDescentRate(5)
		d.SetDefaultAscentRate(5)
		attachEngine(d, model, 0.3, 0.85, 3)
		d.Descend(20, 0)
		d.Stay(16)
		if e, ok := d.Engine().(*buhlmann.Engine); ok {
			e.Scheduler().LastStop = 3
		}
		return d

	case 2:
		d := dive.New(gas.Air)
		d.SetDefaultDescentRate(5)
		d.SetDefaultAscentRate(5)
		d.AddDecoGas(21, deco50())
		attachEngine(d, model, 0.3, 0.85, 3)
		d.Descend(30, 0)
		d.Stay(24)
		return d

	case 3:
		bottom := gas.MustNew(map[string]float64{"oxygen": 0.21, "helium": 0.35, "nitrogen": 0.44})
		d := dive.New(bottom)
		d.SetDefaultDescentRate(5)
		d.SetDefaultAscentRate(5)
		d.AddDecoGas(21, deco50())
		attachEngine(d, model, 0.3, 0.85, 3)
		d.Descend(45, 0)
		d.Stay(6)
		if e, ok := d.Engine().(*buhlmann.Engine); ok {
			e.Scheduler().LastStop = 3
		}
		return d

	case 4:
		bottom := gas.MustNew(map[string]float64{"oxygen": 0.18, "helium": 0.45, "nitrogen": 0.37})
		d := dive.New(bottom)
		d.SetDefaultDescentRate(5)
		d.SetDefaultAscentRate(5)
		d.AddDecoGas(21, deco50())
		attachEngine(d, model, 0.4, 0.85, 3)
		d.Descend(60, 0)
		d.Stay(8)
		if e, ok := d.Engine().(*buhlmann.Engine); ok {
			e.Scheduler().LastStop = 3
		}
		return d

	case 5:
		bottom := gas.MustNew(map[string]float64{"oxygen": 0.21, "helium": 0.20, "nitrogen": 0.59})
		d := dive.New(bottom)
		d.SetDefaultDescentRate(5)
		d.SetDefaultAscentRate(5)
		attachEngine(d, model, 0.5, 0.8, 3)
		d.Descend(40, 0)
		d.Stay(2)
		d.Ascend(30, 0)
		d.Stay(16)
		d.Descend(40, 0)
		d.Stay(2)
		if e, ok := d.Engine().(*buhlmann.Engine); ok {
			e.Scheduler().LastStop = 3
		}
		return d

	default:
		panic(fmt.Sprintf("fixtures: unknown reference dive number %d", number))
	}
}
