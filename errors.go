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
)

// InvalidThresholdError is returned when a concentration threshold
// falls outside the interval (0, 1]. It is fatal to the call that
// supplied the threshold but not to the rest of a run.
type InvalidThresholdError float64

func (e InvalidThresholdError) Error() string {
	return fmt.Sprintf("seaice: concentration threshold %g is outside the interval (0, 1]", float64(e))
}

// errAllMissing is the cause recorded in a MissingGridError when a grid
// was read successfully but every cell holds the land/missing sentinel.
var errAllMissing = errors.New("all grid cells are masked as land or missing")

// MissingGridError reports that the input grid for one (product, date)
// combination could not be loaded. It is recoverable: the date is
// recorded as a data gap and processing continues.
type MissingGridError struct {
	Product string
	Date    time.Time
	Err     error
}

func (e *MissingGridError) Error() string {
	return fmt.Sprintf("seaice: missing %s grid for %s: %v",
		e.Product, e.Date.Format(inDateFormat), e.Err)
}

func (e *MissingGridError) Unwrap() error { return e.Err }

// InsufficientDataError reports that a monthly composite was finalized
// with zero valid observation days. It is recoverable: the month is
// skipped and reported in the run summary.
type InsufficientDataError struct {
	Product   string
	Month     time.Time
	Threshold float64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("seaice: no valid %s observations in %s for threshold %g",
		e.Product, e.Month.Format("2006-01"), e.Threshold)
}

// DimensionMismatchError reports that two grids that should share a
// spatial grid have different shapes. It indicates an upstream
// configuration problem and aborts the run.
type DimensionMismatchError struct {
	Shape1, Shape2 []int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("seaice: grid dimensions %v do not match %v", e.Shape1, e.Shape2)
}
