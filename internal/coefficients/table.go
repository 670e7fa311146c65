// Package coefficients holds the fitted split-window coefficient sets,
// keyed by the column water vapour interval each was regressed on.
package coefficients

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gocarina/gocsv"
)

//go:embed cwv_coefficients.csv
var tableCSV []byte

// Citation names the study the coefficient sets were fitted in.
const Citation = `Du, Chen; Ren, Huazhong; Qin, Qiming; Meng, Jinjie; Zhao, Shaohua. 2015. "A Practical Split-Window Algorithm for Estimating Land Surface Temperature from Landsat 8 Data." Remote Sens. 7, no. 1: 647-665.`

const (
	KindSubrange = "subrange"
	KindAverage  = "average"
)

// Set is one fitted coefficient vector together with the water vapour
// interval it applies to and the regression's reported error.
type Set struct {
	Key  string  `csv:"key"`
	Kind string  `csv:"kind"`
	Low  float64 `csv:"low"`
	High float64 `csv:"high"`
	B0   float64 `csv:"b0"`
	B1   float64 `csv:"b1"`
	B2   float64 `csv:"b2"`
	B3   float64 `csv:"b3"`
	B4   float64 `csv:"b4"`
	B5   float64 `csv:"b5"`
	B6   float64 `csv:"b6"`
	B7   float64 `csv:"b7"`
	RMSE float64 `csv:"rmse"`
}

// OutOfRangeError reports a water vapour estimate outside every fitted
// sub-range.
type OutOfRangeError struct {
	CWV float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("water vapour %.3f g/cm2 is outside every fitted sub-range", e.CWV)
}

// Table indexes coefficient sets for interval lookup. Sub-ranges may
// overlap; the whole-range average set never takes part in interval
// matching and only serves as an explicit fallback.
type Table struct {
	subranges []Set
	average   *Set
	maxHigh   float64
}

// Load parses the built-in coefficient table.
func Load() (*Table, error) {
	var sets []Set
	if err := gocsv.UnmarshalBytes(tableCSV, &sets); err != nil {
		return nil, fmt.Errorf("parsing coefficient table: %w", err)
	}
	return NewTable(sets)
}

// NewTable validates and indexes coefficient sets.
func NewTable(sets []Set) (*Table, error) {
	table := &Table{}
	for _, set := range sets {
		if set.High <= set.Low {
			return nil, fmt.Errorf("coefficient set %s: empty interval [%g, %g)", set.Key, set.Low, set.High)
		}
		switch set.Kind {
		case KindSubrange:
			table.subranges = append(table.subranges, set)
			if set.High > table.maxHigh {
				table.maxHigh = set.High
			}
		case KindAverage:
			if table.average != nil {
				return nil, fmt.Errorf("coefficient set %s: a whole-range set is already present", set.Key)
			}
			whole := set
			table.average = &whole
		default:
			return nil, fmt.Errorf("coefficient set %s: unknown kind %q", set.Key, set.Kind)
		}
	}
	if len(table.subranges) == 0 {
		return nil, errors.New("coefficient table holds no sub-ranges")
	}
	return table, nil
}

// Lookup returns every sub-range covering the water vapour value.
// Intervals are half-open so a value on a boundary matches only the
// range it opens, except at the very top of the fitted domain where the
// bound closes. Overlap regions return two sets.
func (t *Table) Lookup(cwv float64) ([]Set, error) {
	var matches []Set
	for _, set := range t.subranges {
		if cwv < set.Low {
			continue
		}
		if cwv < set.High || (cwv == set.High && set.High == t.maxHigh) {
			matches = append(matches, set)
		}
	}
	if len(matches) == 0 {
		return nil, &OutOfRangeError{CWV: cwv}
	}
	return matches, nil
}

// Average returns the whole-range set used when per-pixel water vapour
// is unavailable, if the table carries one.
func (t *Table) Average() (Set, bool) {
	if t.average == nil {
		return Set{}, false
	}
	return *t.average, true
}

// Subranges returns the fitted sub-ranges in table order.
func (t *Table) Subranges() []Set {
	return t.subranges
}
