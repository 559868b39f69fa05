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
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

var testMonth = time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)

func TestComposite_frequencyAndMedian(t *testing.T) {
	c, err := NewComposite("cdr", testMonth, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	// 28 observed days: cell (0,0) holds ice on 16 of them and
	// cell (0,1) on exactly half.
	for day := 0; day < 28; day++ {
		mask := sparse.ZerosDenseInt(1, 2)
		if day < 16 {
			mask.Set(1, 0, 0)
		}
		if day < 14 {
			mask.Set(1, 0, 1)
		}
		if err := c.Add(mask); err != nil {
			t.Fatal(err)
		}
	}
	if c.Days() != 28 {
		t.Fatalf("want 28 days, have %d", c.Days())
	}
	freq, err := c.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if want := 16. / 28.; math.Abs(freq.Get(0, 0)-want) > testTolerance {
		t.Errorf("frequency: want %g, have %g", want, freq.Get(0, 0))
	}
	median, err := c.Median()
	if err != nil {
		t.Fatal(err)
	}
	if median.Get(0, 0) != 1 {
		t.Error("16/28 days should be in the median extent")
	}
	if median.Get(0, 1) != 0 {
		t.Error("exactly half the days should not be in the median extent")
	}
}

func TestComposite_idempotent(t *testing.T) {
	mask := sparse.ZerosDenseInt(2, 2)
	mask.Set(1, 0, 0)
	mask.Set(1, 1, 1)
	c, err := NewComposite("nic", testMonth, 0.18)
	if err != nil {
		t.Fatal(err)
	}
	for day := 0; day < 10; day++ {
		if err := c.Add(mask); err != nil {
			t.Fatal(err)
		}
	}
	freq, err := c.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	median, err := c.Median()
	if err != nil {
		t.Fatal(err)
	}
	for i := range mask.Elements {
		if freq.Elements[i] != float64(mask.Elements[i]) {
			t.Errorf("cell %d: frequency %g differs from repeated mask value %d",
				i, freq.Elements[i], mask.Elements[i])
		}
	}
	if !reflect.DeepEqual(median.Elements, mask.Elements) {
		t.Errorf("median of a repeated mask should equal the mask: want %v, have %v",
			mask.Elements, median.Elements)
	}
}

func TestComposite_noObservations(t *testing.T) {
	c, err := NewComposite("cdr", testMonth, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Finalize()
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("want InsufficientDataError, have %v", err)
	}
	if insufficient.Product != "cdr" || !insufficient.Month.Equal(testMonth) {
		t.Errorf("error should identify product and month: %v", insufficient)
	}
}

func TestComposite_phaseGuards(t *testing.T) {
	mask := sparse.ZerosDenseInt(1, 1)
	c, err := NewComposite("cdr", testMonth, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Median(); err == nil {
		t.Error("median before finalization should fail")
	}
	if err := c.Add(mask); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(mask); err == nil {
		t.Error("adding after finalization should fail")
	}
	if _, err := c.Finalize(); err == nil {
		t.Error("finalizing twice should fail")
	}
}

func TestComposite_shapeMismatch(t *testing.T) {
	c, err := NewComposite("cdr", testMonth, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add(sparse.ZerosDenseInt(2, 2)); err != nil {
		t.Fatal(err)
	}
	err = c.Add(sparse.ZerosDenseInt(3, 2))
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want DimensionMismatchError, have %v", err)
	}
}

func TestEdge(t *testing.T) {
	// A 2x2 block of ice in the middle of a 4x4 grid. The interior
	// cell (2,2) has ice above and to its left, so only it is not on
	// the edge; the cells bordering the block below and to the right
	// register the transition back to open water.
	mask := sparse.ZerosDenseInt(4, 4)
	for _, c := range [][2]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
		mask.Set(1, c[0], c[1])
	}
	edge := Edge(mask)
	want := sparse.ZerosDenseInt(4, 4)
	for _, c := range [][2]int{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 3}, {3, 1}, {3, 2}} {
		want.Set(1, c[0], c[1])
	}
	if !reflect.DeepEqual(edge.Elements, want.Elements) {
		t.Errorf("edge: want %v, have %v", want.Elements, edge.Elements)
	}
}

func TestEdge_firstRowAndColumn(t *testing.T) {
	mask := sparse.ZerosDenseInt(3, 3)
	mask.Set(1, 0, 0)
	edge := Edge(mask)
	if edge.Get(0, 0) != 1 {
		t.Error("ice in the corner cell should register as edge")
	}
}
