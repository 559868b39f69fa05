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

import "github.com/ctessum/sparse"

// Classify returns the ice occupancy mask for the concentration grid
// conc at the given threshold: cells are 1 where the concentration is
// greater than or equal to threshold and 0 elsewhere. Land and
// missing-data cells (sentinel values below zero) are never counted as
// ice. The threshold must be in (0, 1]; otherwise an
// InvalidThresholdError is returned.
func Classify(conc *sparse.DenseArray, threshold float64) (*sparse.DenseArrayInt, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	mask := sparse.ZerosDenseInt(conc.Shape...)
	for i, v := range conc.Elements {
		// The sentinel is negative, so v >= threshold also excludes it.
		if v >= threshold {
			mask.Elements[i] = 1
		}
	}
	return mask, nil
}

// checkThreshold validates that t lies in (0, 1].
func checkThreshold(t float64) error {
	if t <= 0 || t > 1 {
		return InvalidThresholdError(t)
	}
	return nil
}

// maskCount returns the number of ice cells in an occupancy mask.
func maskCount(mask *sparse.DenseArrayInt) int {
	n := 0
	for _, v := range mask.Elements {
		n += v
	}
	return n
}
