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
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

// fakeSource serves pre-set grids keyed by date and counts loads.
type fakeSource struct {
	product string
	grids   map[string]*sparse.DenseArray
	loads   int
}

func (s *fakeSource) Product() string { return s.product }
func (s *fakeSource) CellArea() float64 { return 625 }

func (s *fakeSource) Grid(date time.Time) (*sparse.DenseArray, error) {
	s.loads++
	g, ok := s.grids[date.Format(inDateFormat)]
	if !ok {
		return nil, &MissingGridError{Product: s.product, Date: date,
			Err: fmt.Errorf("no such file")}
	}
	return g, nil
}

func uniformGrid(ny, nx int, v float64) *sparse.DenseArray {
	g := sparse.ZerosDense(ny, nx)
	for i := range g.Elements {
		g.Elements[i] = v
	}
	return g
}

// recordCollector accumulates the records handed to it.
type recordCollector struct {
	records []Record
	dates   []time.Time
}

func (c *recordCollector) WriteDate(date time.Time, records []Record) error {
	c.dates = append(c.dates, date)
	c.records = append(c.records, records...)
	return nil
}

// compositeCollector accumulates finalized composites.
type compositeCollector struct {
	composites []*Composite
	medians    []*sparse.DenseArrayInt
	edges      []*sparse.DenseArrayInt
}

func (c *compositeCollector) WriteComposite(comp *Composite, freq *sparse.DenseArray, median, edge *sparse.DenseArrayInt) error {
	c.composites = append(c.composites, comp)
	c.medians = append(c.medians, median)
	c.edges = append(c.edges, edge)
	return nil
}

func TestRunStats_missingDateIsGap(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		product: "cdr",
		grids: map[string]*sparse.DenseArray{
			// The middle date is absent.
			"20200301": uniformGrid(2, 2, 0.9),
			"20200303": uniformGrid(2, 2, 0.9),
		},
	}
	w := new(recordCollector)
	summary, err := RunStats([]GridSource{src}, start, start.AddDate(0, 0, 3), Sweep{0.5}, w, nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Gaps() != 1 {
		t.Fatalf("want 1 gap, have %d", summary.Gaps())
	}
	if skipped := summary.SkippedDates["cdr"]; len(skipped) != 1 ||
		skipped[0].Format(inDateFormat) != "20200302" {
		t.Errorf("unexpected skipped dates %v", summary.SkippedDates)
	}
	if len(w.records) != 2 {
		t.Fatalf("want 2 records, have %d", len(w.records))
	}
	// The gap must not leak into the surrounding dates.
	for _, r := range w.records {
		if want := 4 * 625.; r.Area != want {
			t.Errorf("%s area: want %g, have %g", r.Date.Format(inDateFormat), want, r.Area)
		}
	}
}

func TestRunStats_dimensionMismatchAborts(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	cdr := &fakeSource{product: "cdr",
		grids: map[string]*sparse.DenseArray{"20200301": uniformGrid(2, 2, 0.9)}}
	nic := &fakeSource{product: "nic",
		grids: map[string]*sparse.DenseArray{"20200301": uniformGrid(3, 3, 0.9)}}
	_, err := RunStats([]GridSource{cdr, nic}, start, start.AddDate(0, 0, 1), Sweep{0.5}, new(recordCollector), nil)
	if _, ok := err.(*DimensionMismatchError); !ok {
		t.Fatalf("want DimensionMismatchError, have %v", err)
	}
}

func TestRunMedian(t *testing.T) {
	// February 2021 has 28 days; ice covers cell (0,0) on the first
	// 16 of them. 12 days are missing entirely and must shrink the
	// frequency denominator rather than count as open water.
	start := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{product: "cdr", grids: make(map[string]*sparse.DenseArray)}
	for day := 0; day < 16; day++ {
		g := uniformGrid(1, 2, 0)
		g.Set(0.9, 0, 0)
		src.grids[start.AddDate(0, 0, day).Format(inDateFormat)] = g
	}
	w := new(compositeCollector)
	summary, err := RunMedian([]GridSource{src}, start, start.AddDate(0, 1, 0),
		map[string]float64{"cdr": 0.8}, w, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.SkippedMonths["cdr"]) != 0 {
		t.Errorf("unexpected skipped months %v", summary.SkippedMonths)
	}
	if len(w.composites) != 1 {
		t.Fatalf("want 1 composite, have %d", len(w.composites))
	}
	if days := w.composites[0].Days(); days != 16 {
		t.Errorf("want 16 observed days, have %d", days)
	}
	if w.medians[0].Get(0, 0) != 1 {
		t.Error("cell with ice on every observed day should be in the median extent")
	}
	if w.medians[0].Get(0, 1) != 0 {
		t.Error("open-water cell should not be in the median extent")
	}
}

func TestRunMedian_emptyMonthSkipped(t *testing.T) {
	start := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{product: "cdr", grids: make(map[string]*sparse.DenseArray)}
	w := new(compositeCollector)
	summary, err := RunMedian([]GridSource{src}, start, start.AddDate(0, 1, 0),
		map[string]float64{"cdr": 0.8}, w, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.composites) != 0 {
		t.Fatalf("want no composites, have %d", len(w.composites))
	}
	if skipped := summary.SkippedMonths["cdr"]; len(skipped) != 1 || !skipped[0].Equal(start) {
		t.Errorf("unexpected skipped months %v", summary.SkippedMonths)
	}
}

func TestMonthsWithin(t *testing.T) {
	tests := []struct {
		start, end string
		want       []string
	}{
		{"20200101", "20200301", []string{"2020-01", "2020-02"}},
		{"20200115", "20200320", []string{"2020-02"}},
		{"20200115", "20200210", nil},
	}
	for _, test := range tests {
		start, err := time.Parse(inDateFormat, test.start)
		if err != nil {
			t.Fatal(err)
		}
		end, err := time.Parse(inDateFormat, test.end)
		if err != nil {
			t.Fatal(err)
		}
		months := monthsWithin(start, end)
		have := make([]string, len(months))
		for i, m := range months {
			have[i] = m.Format("2006-01")
		}
		if fmt.Sprint(have) != fmt.Sprint(test.want) && !(len(have) == 0 && len(test.want) == 0) {
			t.Errorf("months in [%s, %s): want %v, have %v", test.start, test.end, test.want, have)
		}
	}
}
