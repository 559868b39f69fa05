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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/seaice"
	"github.com/spf13/cast"
)

// inDateFormat specifies the format to use when inputting dates.
const inDateFormat = "20060102"

// checkDates parses the analysis period bounds and ensures the period
// is not empty.
func checkDates(begin, end string) (time.Time, time.Time, error) {
	start, err := time.Parse(inDateFormat, os.ExpandEnv(begin))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("seaice: parsing 'begin' date: %v", err)
	}
	finish, err := time.Parse(inDateFormat, os.ExpandEnv(end))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("seaice: parsing 'end' date: %v", err)
	}
	if !start.Before(finish) {
		return time.Time{}, time.Time{}, fmt.Errorf("seaice: 'begin' date %s must be before 'end' date %s", begin, end)
	}
	return start, finish, nil
}

// checkHemisphere validates the configured hemisphere.
func checkHemisphere(h string) (seaice.Hemisphere, error) {
	hemi := seaice.Hemisphere(os.ExpandEnv(h))
	if err := hemi.Check(); err != nil {
		return "", err
	}
	return hemi, nil
}

// checkProducts validates the configured product list.
func checkProducts(products []string) ([]string, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("seaice: no products specified; choose from 'cdr' and 'nic'")
	}
	for _, p := range products {
		if p != "cdr" && p != "nic" {
			return nil, fmt.Errorf("seaice: unknown product '%s'; choose from 'cdr' and 'nic'", p)
		}
	}
	return products, nil
}

// makeSources builds the configured grid sources for the analysis
// period, wrapped in an in-memory cache. The shared grid geometry is
// probed from the CDR files; it is required whenever the NIC product is
// requested because the chart polygons are rasterized onto it.
func makeSources(cfg *viper.Viper, start, end time.Time, c chan string) ([]seaice.GridSource, *seaice.GridGeometry, error) {
	hemi, err := checkHemisphere(cfg.GetString("hemisphere"))
	if err != nil {
		return nil, nil, err
	}
	products, err := checkProducts(cfg.GetStringSlice("products"))
	if err != nil {
		return nil, nil, err
	}
	ctx := context.TODO()
	cdrDir, err := localInputDir(ctx, os.ExpandEnv(cfg.GetString("CDR.Dir")),
		cdrFiles(start, end, hemi), c)
	if err != nil {
		return nil, nil, err
	}
	cdr := &seaice.CDRSource{Dir: cdrDir, Hemi: hemi}
	geometry, err := cdr.Geometry(start, end)
	if err != nil {
		return nil, nil, err
	}
	cacheSize := cfg.GetInt("CacheSize")
	var sources []seaice.GridSource
	for _, p := range products {
		switch p {
		case "cdr":
			sources = append(sources, &seaice.CachingSource{
				GridSource: cdr, CacheSize: cacheSize})
		case "nic":
			nicDir, err := localInputDir(ctx, os.ExpandEnv(cfg.GetString("NIC.Dir")),
				nicFiles(start, end, hemi), c)
			if err != nil {
				return nil, nil, err
			}
			sources = append(sources, &seaice.CachingSource{
				GridSource: &seaice.NICSource{Dir: nicDir, Hemi: hemi, Geometry: geometry},
				CacheSize:  cacheSize,
			})
		}
	}
	return sources, geometry, nil
}

// cdrFiles lists the CDR file names for the dates in [start, end).
func cdrFiles(start, end time.Time, hemi seaice.Hemisphere) []string {
	var files []string
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		if _, file, err := seaice.CDRFileName(date, hemi); err == nil {
			files = append(files, file)
		}
	}
	return files
}

// nicFiles lists the NIC file names for the dates in [start, end).
func nicFiles(start, end time.Time, hemi seaice.Hemisphere) []string {
	var files []string
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		if _, file, err := seaice.NICFileName(date, hemi); err == nil {
			files = append(files, file)
		}
	}
	return files
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
