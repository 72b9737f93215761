package gas

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sublayer/decoplan/helpers"
)

// MaxPO2, MinPO2 and MaxPNarc are the default operating limits used by the
// MOD/MND convenience properties.
const (
	MaxPO2   = 1.6
	MinPO2   = 0.16
	MaxPNarc = 4.0
)

// ErrNonNormalBlend is returned when the supplied fractions sum to more
// than 1% away from 1. ErrUnknownBlendType names a blend that is neither a
// single gas, air, nitrox nor trimix; nothing in the package returns it:
// every Blend with at most oxygen, nitrogen and helium is a trimix by
// definition, and String, which has no error result, falls back to a
// fraction listing. Both are errors.Is sentinels for the same import-cycle
// reason documented on ErrUnknownGas in gas.go.
var (
	ErrNonNormalBlend   = errors.New("gas: fractions should sum to 1")
	ErrUnknownBlendType = errors.New("gas: unknown blend type")
)

// Blend is a mapping from Gas to mole fraction in [0,1]; fractions are
// renormalized to sum to exactly 1 at construction. Only known gases may
// appear and fractions are strictly positive when present.
type Blend struct {
	fractions map[*Gas]float64
}

// New builds a Blend from a map of gas name to fraction. Fractions must sum
// to 1 within 1%; they are renormalized to exactly 1. Gases with a
// non-positive fraction are dropped, matching the Python original's
// "fraction > 0" filter.
func New(fractions map[string]float64) (*Blend, error) {
	total := 0.0
	for _, f := range fractions {
		total += f
	}
	if math.Abs(total-1) >= 0.01 {
		return nil, fmt.Errorf("%w: instead sum to %f", ErrNonNormalBlend, total)
	}

	b := &Blend{fractions: make(map[*Gas]float64, len(fractions))}
	for name, f := range fractions {
		g, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		if f > 0 {
			b.fractions[g] = f / total
		}
	}
	return b, nil
}

// MustNew is New but panics on error; convenient for package-level
// constants such as Air.
func MustNew(fractions map[string]float64) *Blend {
	b, err := New(fractions)
	if err != nil {
		panic(err)
	}
	return b
}

// Air is the standard atmospheric blend used as the default bottom gas and
// as the initial saturation state for every tissue compartment.
var Air = MustNew(map[string]float64{"oxygen": 0.2098, "nitrogen": 0.7902})

// Fraction returns the mole fraction of g in the blend, or 0 if absent.
func (b *Blend) Fraction(g *Gas) float64 {
	return b.fractions[g]
}

// IsNitrox reports whether the blend contains only oxygen and nitrogen.
func (b *Blend) IsNitrox() bool {
	for g := range b.fractions {
		if g != Oxygen && g != Nitrogen {
			return false
		}
	}
	return true
}

// IsTrimix reports whether the blend contains only oxygen, nitrogen and
// helium (i.e. it is always true for a valid Blend, but mirrors the
// original's explicit check).
func (b *Blend) IsTrimix() bool {
	for g := range b.fractions {
		if g != Oxygen && g != Nitrogen && g != Helium {
			return false
		}
	}
	return true
}

// Equal reports whether two blends have the same fractions within 1e-4,
// used to key the gas consumption model by value rather than identity (see
// DESIGN.md).
func (b *Blend) Equal(other *Blend) bool {
	if other == nil {
		return false
	}
	for _, g := range All() {
		if math.Abs(b.Fraction(g)-other.Fraction(g)) >= 1e-4 {
			return false
		}
	}
	return true
}

// String renders the blend using the conventions of spec.md §4.1: a single
// gas by name, "air" for the standard blend, "EANnn" for nitrox, "Txnn/mm"
// for trimix, or a multi-line fraction listing otherwise.
func (b *Blend) String() string {
	if len(b.fractions) == 1 {
		for g := range b.fractions {
			return strings.ToUpper(g.Name[:1]) + g.Name[1:]
		}
	}
	if b.Equal(Air) || b.isLiteralAirFractions() {
		return "air"
	}
	if b.IsNitrox() {
		return fmt.Sprintf("EAN%.0f", 100*b.Fraction(Oxygen))
	}
	if b.IsTrimix() {
		return fmt.Sprintf("Tx%.0f/%.0f", 100*b.Fraction(Oxygen), 100*b.Fraction(Helium))
	}

	var sb strings.Builder
	sb.WriteString("Gas blend")
	for _, g := range All() {
		if f, ok := b.fractions[g]; ok {
			fmt.Fprintf(&sb, "\n  %s: %.0f%%", g.Name, 100*f)
		}
	}
	return sb.String()
}

// isLiteralAirFractions reports whether the blend is exactly the literal
// 0.21/0.79 oxygen/nitrogen split divers call "air" by convention, distinct
// from Air's own 0.2098/0.7902 measured composition which Equal's 1e-4
// tolerance does not reach.
func (b *Blend) isLiteralAirFractions() bool {
	if len(b.fractions) != 2 {
		return false
	}
	return math.Abs(b.Fraction(Oxygen)-0.21) < 1e-9 && math.Abs(b.Fraction(Nitrogen)-0.79) < 1e-9
}

// MaxOperatingDepthAt returns the maximum operating depth in metres for the
// given maximum partial pressure of oxygen, clamped to 0 if negative.
func (b *Blend) MaxOperatingDepthAt(maxPO2 float64) float64 {
	return math.Max(helpers.Depth(maxPO2/b.Fraction(Oxygen)), 0)
}

// MaxOperatingDepth is MaxOperatingDepthAt(MaxPO2).
func (b *Blend) MaxOperatingDepth() float64 {
	return b.MaxOperatingDepthAt(MaxPO2)
}

// MaxOperatingDepthFeet is MaxOperatingDepth expressed in feet, for divers
// and agencies that plan in imperial units.
func (b *Blend) MaxOperatingDepthFeet() float64 {
	return helpers.MetresToFeet(b.MaxOperatingDepth())
}

// MinOperatingDepthAt returns the minimum operating depth in metres for the
// given minimum partial pressure of oxygen, clamped to 0 if negative.
func (b *Blend) MinOperatingDepthAt(minPO2 float64) float64 {
	return math.Max(helpers.Depth(minPO2/b.Fraction(Oxygen)), 0)
}

// MinOperatingDepth is MinOperatingDepthAt(MinPO2).
func (b *Blend) MinOperatingDepth() float64 {
	return b.MinOperatingDepthAt(MinPO2)
}

// MaxNarcoticDepthAt returns the maximum narcotic depth in metres for the
// given maximum narcotic partial pressure of oxygen plus nitrogen.
func (b *Blend) MaxNarcoticDepthAt(maxPNarc float64) float64 {
	return helpers.Depth(maxPNarc / (b.Fraction(Oxygen) + b.Fraction(Nitrogen)))
}

// MaxNarcoticDepth is MaxNarcoticDepthAt(MaxPNarc).
func (b *Blend) MaxNarcoticDepth() float64 {
	return b.MaxNarcoticDepthAt(MaxPNarc)
}

// PartialPressure returns the partial pressure in bar of g at the given
// depth in metres.
func (b *Blend) PartialPressure(g *Gas, depth float64) float64 {
	return helpers.Pressure(depth) * b.Fraction(g)
}

// PartialPressurePSI is PartialPressure expressed in PSI rather than bar.
func (b *Blend) PartialPressurePSI(g *Gas, depth float64) float64 {
	return helpers.BarToPSI(b.PartialPressure(g, depth))
}

// Compressibility returns the mixture's compressibility factor Z at the
// given absolute pressure in bar.
func (b *Blend) Compressibility(pressure float64) float64 {
	z := 1.0
	for g, f := range b.fractions {
		z += f * g.VirialM1(pressure)
	}
	return z
}

// VirialCoefficients returns the mixture's component-wise weighted virial
// coefficients, zero-padded to the longest gas coefficient vector (trivial
// here since every Gas carries exactly three).
func (b *Blend) VirialCoefficients() [3]float64 {
	var out [3]float64
	for g, f := range b.fractions {
		for i, c := range g.Virial {
			out[i] += f * c
		}
	}
	return out
}

// Gases returns the gases present in the blend in a stable order (by
// name), used wherever callers need deterministic iteration.
func (b *Blend) Gases() []*Gas {
	gases := make([]*Gas, 0, len(b.fractions))
	for g := range b.fractions {
		gases = append(gases, g)
	}
	sort.Slice(gases, func(i, j int) bool { return gases[i].Name < gases[j].Name })
	return gases
}
