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

// Package seaice compares sea ice extent between the NOAA/NSIDC
// sea ice concentration climate data record (CDR) and the U.S. National
// Ice Center (NIC) marginal ice zone product. Daily concentration
// rasters on a shared polar stereographic grid are classified against
// concentration thresholds to produce extent areas and monthly median
// ice edges.
package seaice

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

const (
	// inDateFormat specifies the format to use
	// when inputting dates.
	inDateFormat = "20060102"

	// missingFill marks land and missing-data cells in concentration
	// grids. Ocean cells hold concentrations in [0, 1]; any negative
	// value is never counted as ice or as open water.
	missingFill = -1.
)

// Hemisphere selects the north (Arctic) or south (Antarctic)
// analysis domain.
type Hemisphere string

// The two hemispheres covered by the input products.
const (
	North Hemisphere = "north"
	South Hemisphere = "south"
)

// Check returns an error if h is not a recognized hemisphere.
func (h Hemisphere) Check() error {
	if h != North && h != South {
		return fmt.Errorf("seaice: hemisphere must be 'north' or 'south' but is '%s'", string(h))
	}
	return nil
}

// letter is the single-character hemisphere code used in
// product file names.
func (h Hemisphere) letter() string { return string(h[0]) }

// GridGeometry describes the shared spatial grid that both products
// are rasterized onto: a polar stereographic projection with the grid
// origin at the upper-left corner.
type GridGeometry struct {
	// Proj4 is the grid map projection in Proj4 format.
	Proj4 string

	// X0, Y0 are the projected coordinates of the upper-left grid
	// corner [m].
	X0, Y0 float64

	// Dx, Dy are the cell edge lengths [m]; both are positive, with
	// rows counting downward from Y0.
	Dx, Dy float64

	// Ny, Nx are the number of rows and columns.
	Ny, Nx int
}

// CellArea returns the area represented by one grid cell in km².
func (g *GridGeometry) CellArea() float64 {
	a := unit.Mul(unit.New(g.Dx, unit.Meter), unit.New(g.Dy, unit.Meter))
	if err := a.Check(unit.Meter2); err != nil {
		panic(err)
	}
	return a.Value() / 1.0e6
}

// CellCenter returns the projected coordinates of the center of the
// cell in row j, column i.
func (g *GridGeometry) CellCenter(j, i int) (x, y float64) {
	x = g.X0 + (float64(i)+0.5)*g.Dx
	y = g.Y0 - (float64(j)+0.5)*g.Dy
	return x, y
}

// checkShape returns a DimensionMismatchError if the two shapes differ.
func checkShape(shape1, shape2 []int) error {
	if len(shape1) != len(shape2) {
		return &DimensionMismatchError{Shape1: shape1, Shape2: shape2}
	}
	for i, n := range shape1 {
		if shape2[i] != n {
			return &DimensionMismatchError{Shape1: shape1, Shape2: shape2}
		}
	}
	return nil
}

// validCells counts the cells in conc holding an actual concentration
// observation rather than the land/missing sentinel.
func validCells(conc *sparse.DenseArray) int {
	n := 0
	for _, v := range conc.Elements {
		if v >= 0 {
			n++
		}
	}
	return n
}
