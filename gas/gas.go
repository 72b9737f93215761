// Package gas implements the pure inert/metabolic gas table and the
// GasBlend fraction mapping used throughout the decompression core.
package gas

import (
	"errors"
	"fmt"
	"math"
)

// Gas is an immutable, process-global constant describing one breathing-gas
// component: its name, chemical formula and the three virial coefficients
// used by GasBlend.Compressibility.
type Gas struct {
	Name    string
	Formula string
	// Virial holds [c1, c2, c3] such that virialM1(p) = sum(ci * p^(i+1)).
	Virial [3]float64
}

// VirialM1 evaluates the gas' contribution to the mixture's first virial
// coefficient at the given absolute pressure in bar.
func (g *Gas) VirialM1(pressure float64) float64 {
	sum := 0.0
	for i, c := range g.Virial {
		sum += c * math.Pow(pressure, float64(i+1))
	}
	return sum
}

// The three known gases. Values come from the Bühlmann/VPM-B source
// tables; they are shared, read-only constants and never mutated.
var (
	Oxygen = &Gas{
		Name:    "oxygen",
		Formula: "O2",
		Virial:  [3]float64{-7.18092073703e-04, 2.81852572808e-06, -1.50290620492e-09},
	}
	Nitrogen = &Gas{
		Name:    "nitrogen",
		Formula: "N2",
		Virial:  [3]float64{-2.19260353292e-04, 2.92844845532e-06, -2.07613482075e-09},
	}
	Helium = &Gas{
		Name:    "helium",
		Formula: "He",
		Virial:  [3]float64{4.87320026468e-04, -8.83632921053e-08, 5.33304543646e-11},
	}
)

var byName = map[string]*Gas{
	Oxygen.Name:   Oxygen,
	Nitrogen.Name: Nitrogen,
	Helium.Name:   Helium,
}

// ErrUnknownGas is returned when a gas name is not one of oxygen, nitrogen
// or helium. It is a sentinel checked with errors.Is; Lookup wraps it with
// the offending name via fmt.Errorf's %w verb.
//
// This lives here rather than in decompression (as originally documented)
// because decompression already imports gas for gas.Blend; the reverse
// import would cycle. See DESIGN.md.
var ErrUnknownGas = errors.New("gas: unknown gas")

// Lookup resolves a gas by name, failing with a wrapped ErrUnknownGas if it
// is not one of the three known gases.
func Lookup(name string) (*Gas, error) {
	g, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGas, name)
	}
	return g, nil
}

// All returns the known gases in a stable order (oxygen, nitrogen, helium).
func All() []*Gas {
	return []*Gas{Oxygen, Nitrogen, Helium}
}
