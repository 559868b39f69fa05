/*
Copyright © 2020 the seaice authors.
This file is part of seaice.

seaice is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

seaice is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with seaice.  If not, see <http://www.gnu.org/licenses/>.
*/

package seaice

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// A Record holds the sea ice extent area for one
// (date, product, threshold) combination.
type Record struct {
	Date      time.Time
	Product   string
	Threshold float64

	// Area is the total area of cells at or above Threshold [km²].
	Area float64
}

// Sweep is an ascending set of concentration thresholds to
// calculate extent areas for.
type Sweep []float64

// NewSweep returns the thresholds from lower (inclusive) to upper
// (exclusive) in steps of interval. All resulting thresholds must lie
// in (0, 1].
func NewSweep(lower, upper, interval float64) (Sweep, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("seaice: threshold sweep interval %g must be positive", interval)
	}
	if lower >= upper {
		return nil, fmt.Errorf("seaice: threshold sweep lower bound %g must be below upper bound %g", lower, upper)
	}
	// The small offset keeps accumulated floating-point error in
	// lower+n*interval from adding or dropping the final threshold.
	n := int(math.Ceil((upper - lower - interval*1.0e-9) / interval))
	s := make(Sweep, n)
	if n == 1 {
		s[0] = lower
	} else {
		floats.Span(s, lower, lower+float64(n-1)*interval)
	}
	for _, t := range s {
		if err := checkThreshold(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AggregateDay calculates the extent area for one daily concentration
// grid at each threshold in the sweep, in ascending threshold order.
// cellArea is the area represented by one grid cell [km²]. If every
// cell in the grid holds the land/missing sentinel the day carries no
// observation: no records are emitted and a MissingGridError flags the
// date as a data gap.
func AggregateDay(date time.Time, product string, conc *sparse.DenseArray, sweep Sweep, cellArea float64) ([]Record, error) {
	if validCells(conc) == 0 {
		return nil, &MissingGridError{Product: product, Date: date, Err: errAllMissing}
	}
	records := make([]Record, 0, len(sweep))
	for _, t := range sweep {
		mask, err := Classify(conc, t)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Date:      date,
			Product:   product,
			Threshold: t,
			Area:      float64(maskCount(mask)) * cellArea,
		})
	}
	return records, nil
}

// SweepStats summarizes the daily areas recorded for one
// (product, threshold) combination over a run.
type SweepStats struct {
	Product   string
	Threshold float64
	Days      int
	Mean      float64 // [km²]
	StdDev    float64 // sample standard deviation [km²]
	Min, Max  float64 // [km²]
}

// Summarize groups records by product and threshold and returns
// area statistics for each group, ordered by product then threshold.
func Summarize(records []Record) []SweepStats {
	type key struct {
		product   string
		threshold float64
	}
	groups := make(map[key][]float64)
	for _, r := range records {
		k := key{r.Product, r.Threshold}
		groups[k] = append(groups[k], r.Area)
	}
	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].product != keys[j].product {
			return keys[i].product < keys[j].product
		}
		return keys[i].threshold < keys[j].threshold
	})
	o := make([]SweepStats, len(keys))
	for i, k := range keys {
		areas := groups[k]
		s := SweepStats{
			Product:   k.product,
			Threshold: k.threshold,
			Days:      len(areas),
			Mean:      stats.StatsMean(areas),
			Min:       stats.StatsMin(areas),
			Max:       stats.StatsMax(areas),
		}
		if len(areas) > 1 {
			s.StdDev = stats.StatsSampleStandardDeviation(areas)
		}
		o[i] = s
	}
	return o
}
