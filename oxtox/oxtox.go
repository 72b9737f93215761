// Package oxtox implements the two oxygen-toxicity observers of spec.md:
// pulmonary oxygen toxicity, tracked in OTUs, and central nervous system
// oxygen toxicity, tracked as a percentage of the NOAA single-exposure
// limit. Both are dive-ledger Models: they accumulate from ApplyStep and
// unwind from UndoLastStep exactly like a decompression engine, so they
// can ride along on the same undo stack.
package oxtox

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/sublayer/decoplan/gas"
	"github.com/sublayer/decoplan/step"
)

var logger = slog.Default()

// SetLogger overrides the package-level logger.
func SetLogger(l *slog.Logger) { logger = l }

//go:embed cns_table.csv
var cnsTableCSV []byte

type cnsEntry struct {
	po2        float64
	maxMinutes float64
}

var cnsTable = mustParseCNSTable(cnsTableCSV)

func mustParseCNSTable(data []byte) []cnsEntry {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		panic(fmt.Sprintf("oxtox: parsing embedded cns table: %v", err))
	}
	table := make([]cnsEntry, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		po2, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			panic(fmt.Sprintf("oxtox: parsing cns table po2: %v", err))
		}
		minutes, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			panic(fmt.Sprintf("oxtox: parsing cns table max_minutes: %v", err))
		}
		table = append(table, cnsEntry{po2: po2, maxMinutes: minutes})
	}
	return table
}

// cnsRatePerMinute is the instantaneous fraction of the single-exposure
// CNS limit consumed per minute at the given PO2, linearly interpolated
// between the table's bracketing rows.
func cnsRatePerMinute(po2 float64) float64 {
	if len(cnsTable) == 0 || po2 < cnsTable[0].po2 {
		return 0
	}
	last := cnsTable[len(cnsTable)-1]
	if po2 >= last.po2 {
		return 1 / last.maxMinutes
	}
	for i := 1; i < len(cnsTable); i++ {
		if po2 <= cnsTable[i].po2 {
			lo, hi := cnsTable[i-1], cnsTable[i]
			frac := (po2 - lo.po2) / (hi.po2 - lo.po2)
			rateLo, rateHi := 1/lo.maxMinutes, 1/hi.maxMinutes
			return rateLo + frac*(rateHi-rateLo)
		}
	}
	return 1 / last.maxMinutes
}

// CNS tracks central nervous system oxygen toxicity as a fraction (1.0 =
// 100% of the NOAA single-exposure limit).
type CNS struct {
	fraction float64
	history  []float64
}

// NewCNS returns a CNS tracker starting from zero loading.
func NewCNS() *CNS { return &CNS{} }

// ApplyStep accumulates CNS loading over s, trapezoidally integrating the
// instantaneous rate between the PO2 at the start and end of the step.
func (m *CNS) ApplyStep(s step.Step) {
	po2Start := s.Gas.Fraction(gas.Oxygen) * s.StartPressure()
	rate := s.PressureRate() * s.Gas.Fraction(gas.Oxygen)
	t := s.Minutes()
	po2End := po2Start + rate*t

	fraction := (cnsRatePerMinute(po2Start) + cnsRatePerMinute(po2End)) / 2 * t

	m.history = append(m.history, m.fraction)
	m.fraction += fraction
}

// UndoLastStep reverts the most recently applied step.
func (m *CNS) UndoLastStep() {
	if len(m.history) == 0 {
		return
	}
	m.fraction = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
}

// Percent is the accumulated CNS loading as a percentage of the NOAA
// single-exposure limit.
func (m *CNS) Percent() float64 { return m.fraction * 100 }

// Pulmonary tracks pulmonary oxygen toxicity in OTUs (oxygen tolerance
// units), using the standard Lambertsen formula with its 0.5 ata
// threshold and 5/6 exponent.
type Pulmonary struct {
	otu     float64
	history []float64
}

// NewPulmonary returns a Pulmonary tracker starting from zero OTUs.
func NewPulmonary() *Pulmonary { return &Pulmonary{} }

// otuExponent and otuCoefficient are the exact Lambertsen power-law
// fraction 11/6 and its integration coefficient 3/11, rather than the
// 1.83/0.5 decimal approximations that drift from them.
const (
	otuExponent     = 11.0 / 6.0
	otuCoefficient  = 3.0 / 11.0
	otuStayExponent = 5.0 / 6.0
)

// otuAntiderivative is F(x) such that F'(x) is proportional to
// ((x-0.5)/0.5)^(5/6) for x > 0.5 and 0 otherwise; used to integrate OTUs
// analytically across a step during which PO2 changes linearly.
func otuAntiderivative(x float64) float64 {
	if x <= 0.5 {
		return 0
	}
	return math.Pow((x-0.5)/0.5, otuExponent)
}

// ApplyStep accumulates OTUs over s. When PO2 is constant (a stay), the
// textbook power-law formula is used directly; when it changes linearly
// (a descent, ascent or switch with onward movement), the formula is
// integrated in closed form via otuAntiderivative.
func (m *Pulmonary) ApplyStep(s step.Step) {
	po2Start := s.Gas.Fraction(gas.Oxygen) * s.StartPressure()
	rate := s.PressureRate() * s.Gas.Fraction(gas.Oxygen)
	t := s.Minutes()

	var otu float64
	if rate == 0 {
		if po2Start > 0.5 {
			otu = t * math.Pow((po2Start-0.5)/0.5, otuStayExponent)
		}
	} else {
		po2End := po2Start + rate*t
		otu = otuCoefficient * (otuAntiderivative(po2End) - otuAntiderivative(po2Start)) / rate
	}

	m.history = append(m.history, m.otu)
	m.otu += otu
}

// UndoLastStep reverts the most recently applied step.
func (m *Pulmonary) UndoLastStep() {
	if len(m.history) == 0 {
		return
	}
	m.otu = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
}

// OTU is the accumulated pulmonary oxygen toxicity in oxygen tolerance
// units.
func (m *Pulmonary) OTU() float64 { return m.otu }
