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
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/sparse"
	goshp "github.com/jonas-p/go-shp"
)

// CompositeFiles writes finalized monthly composites to a directory:
// one NetCDF file per composite holding the frequency, median, and
// edge grids, and one point shapefile holding the edge cell centers.
type CompositeFiles struct {
	// Dir is the output directory; it is created if necessary.
	Dir string

	// Geometry describes the grid the composites are on.
	Geometry *GridGeometry
}

// WriteComposite implements the CompositeWriter interface.
func (cf *CompositeFiles) WriteComposite(c *Composite, freq *sparse.DenseArray, median, edge *sparse.DenseArrayInt) error {
	if err := os.MkdirAll(cf.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("seaice: creating composite output directory: %v", err)
	}
	base := fmt.Sprintf("median_%s_%s", c.Product, c.Month.Format("200601"))
	if err := WriteCompositeNCF(filepath.Join(cf.Dir, base+".nc"), cf.Geometry, c, freq, median, edge); err != nil {
		return err
	}
	return WriteEdgeShapefile(filepath.Join(cf.Dir, base+"_edge.shp"), cf.Geometry, edge)
}

// WriteCompositeNCF writes one finalized monthly composite to a NetCDF
// file holding the daily occupancy frequency, the median-occupancy
// mask, and the median ice edge mask, with the grid projection and
// composite parameters as global attributes.
func WriteCompositeNCF(filename string, g *GridGeometry, c *Composite, freq *sparse.DenseArray, median, edge *sparse.DenseArrayInt) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Ny, g.Nx})

	h.AddVariable("frequency", []string{"y", "x"}, []float32{0})
	h.AddAttribute("frequency", "description", "fraction of observed days with ice cover at or above the threshold")
	h.AddAttribute("frequency", "units", "1")
	h.AddVariable("median", []string{"y", "x"}, []int32{0})
	h.AddAttribute("median", "description", "1 where ice cover held on more than half of the observed days")
	h.AddAttribute("median", "units", "1")
	h.AddVariable("edge", []string{"y", "x"}, []int32{0})
	h.AddAttribute("edge", "description", "1 on the boundary of the median ice cover")
	h.AddAttribute("edge", "units", "1")

	h.AddAttribute("", "proj4", g.Proj4)
	h.AddAttribute("", "product", c.Product)
	h.AddAttribute("", "month", c.Month.Format("2006-01"))
	h.AddAttribute("", "threshold", []float64{c.Threshold})
	h.AddAttribute("", "observed_days", []int32{int32(c.Days())})

	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("seaice: creating composite netcdf file: %v", err)
	}

	ff, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("seaice: creating composite netcdf file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("seaice: creating composite netcdf file: %v", err)
	}

	fbuf := make([]float32, len(freq.Elements))
	for i, v := range freq.Elements {
		fbuf[i] = float32(v)
	}
	if _, err := f.Writer("frequency", nil, nil).Write(fbuf); err != nil {
		return fmt.Errorf("seaice: writing composite frequency: %v", err)
	}
	for _, grid := range []struct {
		name string
		data *sparse.DenseArrayInt
	}{{"median", median}, {"edge", edge}} {
		buf := make([]int32, len(grid.data.Elements))
		for i, v := range grid.data.Elements {
			buf[i] = int32(v)
		}
		if _, err := f.Writer(grid.name, nil, nil).Write(buf); err != nil {
			return fmt.Errorf("seaice: writing composite %s: %v", grid.name, err)
		}
	}
	return nil
}

// WriteEdgeShapefile writes the centers of the edge cells in the given
// mask as a point shapefile, with the projected coordinates repeated
// as attribute fields and the grid projection in a .prj sidecar file.
func WriteEdgeShapefile(filename string, g *GridGeometry, edge *sparse.DenseArrayInt) error {
	fields := []goshp.Field{
		goshp.FloatField("x", 14, 2),
		goshp.FloatField("y", 14, 2),
	}
	shape, err := shp.NewEncoderFromFields(filename, goshp.POINT, fields...)
	if err != nil {
		return fmt.Errorf("seaice: creating edge shapefile: %v", err)
	}
	for j := 0; j < edge.Shape[0]; j++ {
		for i := 0; i < edge.Shape[1]; i++ {
			if edge.Get(j, i) == 0 {
				continue
			}
			x, y := g.CellCenter(j, i)
			if err := shape.EncodeFields(geom.Point{X: x, Y: y}, x, y); err != nil {
				shape.Close()
				return fmt.Errorf("seaice: writing edge shapefile: %v", err)
			}
		}
	}
	shape.Close()

	prj, err := os.Create(strings.TrimSuffix(filename, filepath.Ext(filename)) + ".prj")
	if err != nil {
		return fmt.Errorf("seaice: creating edge prj file: %v", err)
	}
	fmt.Fprint(prj, g.Proj4)
	return prj.Close()
}
