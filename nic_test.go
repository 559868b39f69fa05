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
	"testing"
	"time"

	"github.com/ctessum/geom"
)

func TestNICFileName(t *testing.T) {
	date := time.Date(2020, time.February, 3, 0, 0, 0, 0, time.UTC) // day 34
	dir, file, err := NICFileName(date, North)
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://sidads.colorado.edu/pub/DATASETS/NOAA/G10017/north/2020/"; dir != want {
		t.Errorf("directory: want %s, have %s", want, dir)
	}
	if want := "nic_miz2020034nc_pl_a.zip"; file != want {
		t.Errorf("file: want %s, have %s", want, file)
	}
	if _, file, err = NICFileName(date, South); err != nil {
		t.Fatal(err)
	} else if want := "nic_miz2020034sc_pl_a.zip"; file != want {
		t.Errorf("south file: want %s, have %s", want, file)
	}
}

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

func TestRasterize(t *testing.T) {
	g := &GridGeometry{
		X0: 0, Y0: 40,
		Dx: 10, Dy: 10,
		Ny: 4, Nx: 4,
	}
	polys := []*IcePolygon{
		// Marginal ice zone covering the upper-left 2x2 cells.
		{Polygonal: rect(0, 20, 20, 40), Conc: 0.18},
		// Pack ice overlapping the upper-left cell; overlaps take the
		// higher concentration.
		{Polygonal: rect(0, 30, 10, 40), Conc: 0.80},
	}
	conc := Rasterize(polys, g)

	want := map[[2]int]float64{
		{0, 0}: 0.80,
		{0, 1}: 0.18,
		{1, 0}: 0.18,
		{1, 1}: 0.18,
	}
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			w, ok := want[[2]int{j, i}]
			if !ok {
				w = missingFill
			}
			if v := conc.Get(j, i); v != w {
				t.Errorf("cell (%d, %d): want %g, have %g", j, i, w, v)
			}
		}
	}
}

func TestRasterize_empty(t *testing.T) {
	g := &GridGeometry{X0: 0, Y0: 20, Dx: 10, Dy: 10, Ny: 2, Nx: 2}
	conc := Rasterize(nil, g)
	if n := validCells(conc); n != 0 {
		t.Errorf("empty chart should leave all cells missing, have %d valid", n)
	}
}
