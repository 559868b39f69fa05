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

package seaiceutil

import (
	"fmt"
	"math"
	"sort"

	"github.com/spatialmodel/seaice"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// TimeSeriesPlot plots the daily extent area of each product at the
// given threshold and saves the result to filename.
func TimeSeriesPlot(records []seaice.Record, threshold float64, filename string) error {
	series := make(map[string]plotter.XYs)
	for _, r := range records {
		if math.Abs(r.Threshold-threshold) > 1.0e-9 {
			continue
		}
		series[r.Product] = append(series[r.Product],
			plotter.XY{X: float64(r.Date.Unix()), Y: r.Area})
	}
	if len(series) == 0 {
		return fmt.Errorf("seaice: no areas at threshold %g to plot", threshold)
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("Sea ice extent at %.0f%% concentration", 100*threshold)
	p.X.Label.Text = "Date"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Y.Label.Text = "Extent area (km²)"
	p.Y.Min = 0

	var args []interface{}
	for _, product := range sortedKeys(series) {
		xy := series[product]
		sort.Slice(xy, func(i, j int) bool { return xy[i].X < xy[j].X })
		args = append(args, product, xy)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// SweepPlot plots the mean extent area of each product across the
// threshold sweep and saves the result to filename.
func SweepPlot(stats []seaice.SweepStats, filename string) error {
	series := make(map[string]plotter.XYs)
	for _, s := range stats {
		series[s.Product] = append(series[s.Product],
			plotter.XY{X: s.Threshold, Y: s.Mean})
	}
	if len(series) == 0 {
		return fmt.Errorf("seaice: no area statistics to plot")
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Mean sea ice extent by threshold"
	p.X.Label.Text = "Concentration threshold"
	p.Y.Label.Text = "Mean extent area (km²)"
	p.Y.Min = 0

	var args []interface{}
	for _, product := range sortedKeys(series) {
		args = append(args, product, series[product])
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

func sortedKeys(m map[string]plotter.XYs) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
