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
	"archive/zip"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// iceCodes maps the NIC marginal ice zone ICECODE attribute to the
// lower bound of the concentration range it stands for. CT18 marks the
// marginal ice zone (1/10 to 8/10 cover) and CT81 the pack ice
// (8/10 and above).
var iceCodes = map[string]float64{
	"CT18": 0.18,
	"CT81": 0.80,
}

// NICFileName returns the remote directory and file name of the zipped
// NIC marginal ice zone shapefile for the given date and hemisphere.
func NICFileName(date time.Time, h Hemisphere) (dir, file string, err error) {
	if err := h.Check(); err != nil {
		return "", "", err
	}
	dir = fmt.Sprintf("https://sidads.colorado.edu/pub/DATASETS/NOAA/G10017/%s/%s/",
		h, date.Format("2006"))
	file = fmt.Sprintf("nic_miz%s%03d%sc_pl_a.zip",
		date.Format("2006"), date.YearDay(), h.letter())
	return dir, file, nil
}

// A NICSource loads daily NIC marginal ice zone polygons from zipped
// shapefiles in a local directory and rasterizes them onto the shared
// analysis grid.
type NICSource struct {
	// Dir is the directory holding the daily zip files.
	Dir string

	// Hemi selects the analysis hemisphere.
	Hemi Hemisphere

	// Geometry is the shared grid the polygons are rasterized onto,
	// normally taken from the matching CDR files.
	Geometry *GridGeometry
}

// Product implements the GridSource interface.
func (s *NICSource) Product() string { return "nic" }

// CellArea implements the GridSource interface.
func (s *NICSource) CellArea() float64 { return s.Geometry.CellArea() }

// Grid implements the GridSource interface, reading the zipped
// shapefile for the given date and rasterizing its ice polygons onto
// the shared grid. Cells outside every polygon hold the land/missing
// sentinel; the product does not distinguish open water from land.
func (s *NICSource) Grid(date time.Time) (*sparse.DenseArray, error) {
	_, file, err := NICFileName(date, s.Hemi)
	if err != nil {
		return nil, err
	}
	polys, err := ReadNIC(filepath.Join(s.Dir, file), s.Geometry.Proj4)
	if err != nil {
		return nil, &MissingGridError{Product: s.Product(), Date: date, Err: err}
	}
	return Rasterize(polys, s.Geometry), nil
}

// An IcePolygon is one NIC chart polygon reprojected to the analysis
// grid, holding the lower bound of its charted concentration range.
type IcePolygon struct {
	geom.Polygonal
	Conc float64
}

// ReadNIC reads the zipped NIC marginal ice zone shapefile at filename
// and returns its polygons reprojected to the projection given in
// proj4 format. Polygons with unrecognized ICECODE attributes are
// skipped.
func ReadNIC(filename, proj4 string) ([]*IcePolygon, error) {
	shpFile, cleanup, err := unzipShapefile(filename)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	d, err := shp.NewDecoder(shpFile)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile in %s: %v", filename, err)
	}
	defer d.Close()
	shpSR, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("reading shapefile projection in %s: %v", filename, err)
	}
	gridSR, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("parsing grid projection '%s': %v", proj4, err)
	}
	trans, err := shpSR.NewTransform(gridSR)
	if err != nil {
		return nil, fmt.Errorf("creating projection transform for %s: %v", filename, err)
	}
	var polys []*IcePolygon
	for {
		g, fields, more := d.DecodeRowFields("ICECODE")
		if !more {
			break
		}
		conc, ok := iceCodes[strings.TrimSpace(fields["ICECODE"])]
		if !ok {
			continue
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("reprojecting polygon in %s: %v", filename, err)
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			continue
		}
		polys = append(polys, &IcePolygon{Polygonal: poly, Conc: conc})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decoding shapefile in %s: %v", filename, err)
	}
	return polys, nil
}

// Rasterize converts ice polygons to a concentration grid: each cell
// takes the highest concentration of the polygons containing its
// center, and cells outside every polygon hold the land/missing
// sentinel.
func Rasterize(polys []*IcePolygon, g *GridGeometry) *sparse.DenseArray {
	tree := rtree.NewTree(25, 50)
	for _, p := range polys {
		tree.Insert(p)
	}
	conc := sparse.ZerosDense(g.Ny, g.Nx)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			x, y := g.CellCenter(j, i)
			center := geom.Point{X: x, Y: y}
			v := missingFill
			for _, pI := range tree.SearchIntersect(center.Bounds()) {
				p := pI.(*IcePolygon)
				if center.Within(p.Polygonal) != geom.Outside && p.Conc > v {
					v = p.Conc
				}
			}
			conc.Set(v, j, i)
		}
	}
	return conc
}

// unzipShapefile extracts the contents of a zipped shapefile to a
// temporary directory, returning the path of the extracted .shp file
// and a cleanup function that removes the directory.
func unzipShapefile(filename string) (string, func(), error) {
	z, err := zip.OpenReader(filename)
	if err != nil {
		return "", nil, err
	}
	defer z.Close()
	dir, err := ioutil.TempDir("", "seaice")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	shpFile := ""
	for _, zf := range z.File {
		name := filepath.Base(zf.Name)
		r, err := zf.Open()
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("extracting %s from %s: %v", zf.Name, filename, err)
		}
		w, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			r.Close()
			cleanup()
			return "", nil, err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			r.Close()
			cleanup()
			return "", nil, fmt.Errorf("extracting %s from %s: %v", zf.Name, filename, err)
		}
		w.Close()
		r.Close()
		if strings.HasSuffix(strings.ToLower(name), ".shp") {
			shpFile = filepath.Join(dir, name)
		}
	}
	if shpFile == "" {
		cleanup()
		return "", nil, fmt.Errorf("no .shp file in %s", filename)
	}
	return shpFile, cleanup, nil
}
