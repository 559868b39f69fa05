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
	"time"

	"github.com/ctessum/sparse"
)

// A Composite accumulates daily ice occupancy over one calendar month
// for one (product, threshold) combination. It moves through two
// explicit phases: while accumulating, each observed day's occupancy
// mask is added to a per-cell counter; Finalize then converts the
// counts to an occupancy frequency grid. Adding after finalization and
// reading the frequency before it are both errors rather than silent
// misbehavior.
type Composite struct {
	Product   string
	Month     time.Time // first day of the month
	Threshold float64

	counts *sparse.DenseArrayInt
	days   int
	freq   *sparse.DenseArray // non-nil once finalized
}

// NewComposite returns an empty composite for the month containing the
// given time. The threshold must be in (0, 1].
func NewComposite(product string, month time.Time, threshold float64) (*Composite, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	return &Composite{
		Product:   product,
		Month:     time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC),
		Threshold: threshold,
	}, nil
}

// Add accumulates one observed day's occupancy mask. Days with missing
// grids must simply not be added, so that the frequency denominator
// reflects actual observations rather than calendar days.
func (c *Composite) Add(mask *sparse.DenseArrayInt) error {
	if c.freq != nil {
		return fmt.Errorf("seaice: adding to already-finalized %s composite for %s",
			c.Product, c.Month.Format("2006-01"))
	}
	if c.counts == nil {
		c.counts = sparse.ZerosDenseInt(mask.Shape...)
	} else if err := checkShape(c.counts.Shape, mask.Shape); err != nil {
		return err
	}
	for i, v := range mask.Elements {
		c.counts.Elements[i] += v
	}
	c.days++
	return nil
}

// Days returns the number of observed days accumulated so far.
func (c *Composite) Days() int { return c.days }

// Finalize converts the accumulated counts to an occupancy frequency
// grid in [0, 1] and ends the accumulation phase. If no days were
// accumulated it returns an InsufficientDataError and the composite
// stays un-finalized.
func (c *Composite) Finalize() (*sparse.DenseArray, error) {
	if c.freq != nil {
		return nil, fmt.Errorf("seaice: %s composite for %s finalized twice",
			c.Product, c.Month.Format("2006-01"))
	}
	if c.days == 0 {
		return nil, &InsufficientDataError{
			Product:   c.Product,
			Month:     c.Month,
			Threshold: c.Threshold,
		}
	}
	c.freq = sparse.ZerosDense(c.counts.Shape...)
	for i, n := range c.counts.Elements {
		c.freq.Elements[i] = float64(n) / float64(c.days)
	}
	return c.freq, nil
}

// Median returns the median-occupancy mask: cells that held ice on
// strictly more than half of the observed days. The composite must be
// finalized first.
func (c *Composite) Median() (*sparse.DenseArrayInt, error) {
	if c.freq == nil {
		return nil, fmt.Errorf("seaice: median requested from un-finalized %s composite for %s",
			c.Product, c.Month.Format("2006-01"))
	}
	median := sparse.ZerosDenseInt(c.freq.Shape...)
	for i, f := range c.freq.Elements {
		if f > 0.5 {
			median.Elements[i] = 1
		}
	}
	return median, nil
}

// Edge reduces a 2-D occupancy mask to its boundary cells: the first
// difference is taken along each grid axis (with an implicit leading
// zero, so occupancy in the first row or column also registers) and a
// cell is an edge cell wherever either difference is nonzero.
func Edge(mask *sparse.DenseArrayInt) *sparse.DenseArrayInt {
	ny, nx := mask.Shape[0], mask.Shape[1]
	edge := sparse.ZerosDenseInt(ny, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v := mask.Get(j, i)
			up, left := 0, 0
			if j > 0 {
				up = mask.Get(j-1, i)
			}
			if i > 0 {
				left = mask.Get(j, i-1)
			}
			if v != up || v != left {
				edge.Set(1, j, i)
			}
		}
	}
	return edge
}
