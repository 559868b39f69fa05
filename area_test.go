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
	"math"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

const testTolerance = 1.0e-10

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > testTolerance {
			return false
		}
	}
	return true
}

func TestNewSweep(t *testing.T) {
	tests := []struct {
		lower, upper, interval float64
		want                   []float64
	}{
		{0.1, 1.0, 0.05, []float64{0.1, 0.15, 0.2, 0.25, 0.3, 0.35, 0.4, 0.45,
			0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95}},
		{0.5, 0.6, 0.2, []float64{0.5}},
		{0.2, 0.8, 0.3, []float64{0.2, 0.5}},
	}
	for _, test := range tests {
		s, err := NewSweep(test.lower, test.upper, test.interval)
		if err != nil {
			t.Fatalf("sweep [%g, %g) by %g: %v", test.lower, test.upper, test.interval, err)
		}
		if !floatsEqual(s, test.want) {
			t.Errorf("sweep [%g, %g) by %g: want %v, have %v",
				test.lower, test.upper, test.interval, test.want, s)
		}
	}
}

func TestNewSweep_invalid(t *testing.T) {
	if _, err := NewSweep(0.5, 0.1, 0.05); err == nil {
		t.Error("inverted bounds should fail")
	}
	if _, err := NewSweep(0.1, 0.5, 0); err == nil {
		t.Error("zero interval should fail")
	}
	_, err := NewSweep(-0.1, 0.5, 0.1)
	var invalid InvalidThresholdError
	if !errors.As(err, &invalid) {
		t.Errorf("negative threshold: want InvalidThresholdError, have %v", err)
	}
}

func TestAggregateDay(t *testing.T) {
	// A 4x4 grid where one corner cell is below the threshold
	// and every other cell is at or above it.
	conc := sparse.ZerosDense(4, 4)
	for i := range conc.Elements {
		conc.Elements[i] = 0.9
	}
	conc.Set(0.1, 0, 0)

	const cellArea = 625. // 25 km cells
	date := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	records, err := AggregateDay(date, "cdr", conc, Sweep{0.5}, cellArea)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record, have %d", len(records))
	}
	if want := 15 * cellArea; records[0].Area != want {
		t.Errorf("area: want %g, have %g", want, records[0].Area)
	}
}

func TestAggregateDay_areaMonotonic(t *testing.T) {
	conc := sparse.ZerosDense(5, 5)
	for i := range conc.Elements {
		conc.Elements[i] = float64(i) / float64(len(conc.Elements))
	}
	sweep, err := NewSweep(0.1, 1.0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	records, err := AggregateDay(time.Now(), "cdr", conc, sweep, 625)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Area > records[i-1].Area {
			t.Errorf("area at threshold %g exceeds area at %g",
				records[i].Threshold, records[i-1].Threshold)
		}
	}
}

func TestAggregateDay_allMissing(t *testing.T) {
	conc := sparse.ZerosDense(3, 3)
	for i := range conc.Elements {
		conc.Elements[i] = missingFill
	}
	date := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	_, err := AggregateDay(date, "nic", conc, Sweep{0.5}, 625)
	var missing *MissingGridError
	if !errors.As(err, &missing) {
		t.Fatalf("want MissingGridError, have %v", err)
	}
	if missing.Product != "nic" || !missing.Date.Equal(date) {
		t.Errorf("error should identify product and date: %v", missing)
	}
}

func TestSummarize(t *testing.T) {
	date := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Date: date, Product: "cdr", Threshold: 0.5, Area: 100},
		{Date: date.AddDate(0, 0, 1), Product: "cdr", Threshold: 0.5, Area: 300},
		{Date: date, Product: "nic", Threshold: 0.5, Area: 50},
	}
	s := Summarize(records)
	if len(s) != 2 {
		t.Fatalf("want 2 groups, have %d", len(s))
	}
	cdr := s[0]
	if cdr.Product != "cdr" || cdr.Days != 2 {
		t.Fatalf("unexpected first group %+v", cdr)
	}
	if cdr.Mean != 200 || cdr.Min != 100 || cdr.Max != 300 {
		t.Errorf("cdr stats: %+v", cdr)
	}
	if math.Abs(cdr.StdDev-math.Sqrt2*100) > 1.0e-9 {
		t.Errorf("cdr standard deviation: want %g, have %g", math.Sqrt2*100, cdr.StdDev)
	}
	if s[1].Product != "nic" || s[1].StdDev != 0 {
		t.Errorf("unexpected second group %+v", s[1])
	}
}

func TestStatsFileName(t *testing.T) {
	if name := StatsFileName(0.1, 1.0); name != "stats_10_to_100_sic.csv" {
		t.Errorf("unexpected file name %s", name)
	}
}
