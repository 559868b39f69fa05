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
	"errors"
	"fmt"
	"time"

	"github.com/ctessum/sparse"
)

// A GridSource supplies daily concentration grids for one product.
type GridSource interface {
	// Product returns the short product name ("cdr" or "nic").
	Product() string

	// Grid returns the concentration grid for the given date, with
	// values in [0, 1] for ocean cells and a negative sentinel for
	// land and missing data. Errors are treated as data gaps for
	// that date.
	Grid(date time.Time) (*sparse.DenseArray, error)

	// CellArea returns the area represented by one grid cell [km²].
	CellArea() float64
}

// A RecordWriter receives the completed area records for one
// (date, product) combination. Writers are expected to flush
// incrementally so an interrupted run keeps its completed dates.
type RecordWriter interface {
	WriteDate(date time.Time, records []Record) error
}

// A CompositeWriter receives one finalized monthly composite together
// with its derived frequency, median-occupancy, and median-edge grids.
type CompositeWriter interface {
	WriteComposite(c *Composite, freq *sparse.DenseArray, median, edge *sparse.DenseArrayInt) error
}

// A Summary reports the data gaps encountered during a run: input
// dates that could not be processed, and composite months with no
// valid observations, keyed by product.
type Summary struct {
	SkippedDates  map[string][]time.Time
	SkippedMonths map[string][]time.Time
}

func newSummary() *Summary {
	return &Summary{
		SkippedDates:  make(map[string][]time.Time),
		SkippedMonths: make(map[string][]time.Time),
	}
}

func (s *Summary) skipDate(product string, date time.Time) {
	s.SkippedDates[product] = append(s.SkippedDates[product], date)
}

func (s *Summary) skipMonth(product string, month time.Time) {
	s.SkippedMonths[product] = append(s.SkippedMonths[product], month)
}

// Gaps returns the total number of skipped dates across products.
func (s *Summary) Gaps() int {
	n := 0
	for _, dates := range s.SkippedDates {
		n += len(dates)
	}
	return n
}

// RunStats processes each date in [start, end) in sequence: for each
// product, the daily grid is loaded, classified at every threshold in
// the sweep, and the resulting area records are handed to w before the
// next date begins. A date whose grid cannot be loaded (or holds no
// observations) becomes a gap in the summary and does not affect any
// other date. Grids from different products or dates with mismatched
// shapes abort the run. Progress messages are sent to msgChan if it is
// non-nil.
func RunStats(sources []GridSource, start, end time.Time, sweep Sweep, w RecordWriter, msgChan chan string) (*Summary, error) {
	if len(sweep) == 0 {
		return nil, fmt.Errorf("seaice: empty threshold sweep")
	}
	summary := newSummary()
	var shape []int
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		for _, src := range sources {
			conc, err := src.Grid(date)
			if err != nil {
				summary.skipDate(src.Product(), date)
				if msgChan != nil {
					msgChan <- fmt.Sprintf("Skipping %s for %s: %v\n",
						date.Format(inDateFormat), src.Product(), err)
				}
				continue
			}
			if shape == nil {
				shape = conc.Shape
			} else if err := checkShape(shape, conc.Shape); err != nil {
				return nil, err
			}
			records, err := AggregateDay(date, src.Product(), conc, sweep, src.CellArea())
			if err != nil {
				var missing *MissingGridError
				if errors.As(err, &missing) {
					summary.skipDate(src.Product(), date)
					if msgChan != nil {
						msgChan <- fmt.Sprintf("Skipping %s for %s: %v\n",
							date.Format(inDateFormat), src.Product(), err)
					}
					continue
				}
				return nil, err
			}
			if err := w.WriteDate(date, records); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}

// RunMedian builds a monthly composite for every calendar month that
// lies entirely within [start, end), for each source, at the per-
// product threshold given in thresholds. Days with missing grids are
// skipped without incrementing the observation count; a month with no
// observations at all is skipped and recorded in the summary.
// Finalized composites are handed to w one at a time.
func RunMedian(sources []GridSource, start, end time.Time, thresholds map[string]float64, w CompositeWriter, msgChan chan string) (*Summary, error) {
	summary := newSummary()
	for _, month := range monthsWithin(start, end) {
		for _, src := range sources {
			t, ok := thresholds[src.Product()]
			if !ok {
				return nil, fmt.Errorf("seaice: no median threshold configured for product %s", src.Product())
			}
			c, err := NewComposite(src.Product(), month, t)
			if err != nil {
				return nil, err
			}
			next := month.AddDate(0, 1, 0)
			for date := month; date.Before(next); date = date.AddDate(0, 0, 1) {
				conc, err := src.Grid(date)
				if err != nil {
					if msgChan != nil {
						msgChan <- fmt.Sprintf("Skipping %s for %s: %v\n",
							date.Format(inDateFormat), src.Product(), err)
					}
					continue
				}
				if validCells(conc) == 0 {
					continue
				}
				mask, err := Classify(conc, t)
				if err != nil {
					return nil, err
				}
				if err := c.Add(mask); err != nil {
					return nil, err
				}
			}
			freq, err := c.Finalize()
			if err != nil {
				var insufficient *InsufficientDataError
				if errors.As(err, &insufficient) {
					summary.skipMonth(src.Product(), month)
					if msgChan != nil {
						msgChan <- fmt.Sprintf("Skipping %s composite for %s: %v\n",
							src.Product(), month.Format("2006-01"), err)
					}
					continue
				}
				return nil, err
			}
			median, err := c.Median()
			if err != nil {
				return nil, err
			}
			if err := w.WriteComposite(c, freq, median, Edge(median)); err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}

// monthsWithin returns the first days of the calendar months lying
// entirely inside [start, end). Partial months at either end of the
// range are excluded so every composite covers a whole month.
func monthsWithin(start, end time.Time) []time.Time {
	m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if m.Before(start) {
		m = m.AddDate(0, 1, 0)
	}
	var months []time.Time
	for !m.AddDate(0, 1, 0).After(end) {
		months = append(months, m)
		m = m.AddDate(0, 1, 0)
	}
	return months
}
