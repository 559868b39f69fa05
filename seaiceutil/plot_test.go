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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/seaice"
)

func testRecords() []seaice.Record {
	date := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	var records []seaice.Record
	for day := 0; day < 5; day++ {
		for _, threshold := range []float64{0.1, 0.8} {
			records = append(records,
				seaice.Record{Date: date.AddDate(0, 0, day), Product: "cdr",
					Threshold: threshold, Area: 1.0e6 - float64(day)*1.0e4},
				seaice.Record{Date: date.AddDate(0, 0, day), Product: "nic",
					Threshold: threshold, Area: 9.0e5 - float64(day)*1.0e4})
		}
	}
	return records
}

func TestTimeSeriesPlot(t *testing.T) {
	dir, err := ioutil.TempDir("", "seaice")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "areas.png")
	if err := TimeSeriesPlot(testRecords(), 0.8, filename); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filename); err != nil || info.Size() == 0 {
		t.Errorf("plot file missing or empty: %v", err)
	}

	if err := TimeSeriesPlot(testRecords(), 0.33, filename); err == nil {
		t.Error("plotting a threshold with no records should fail")
	}
}

func TestSweepPlot(t *testing.T) {
	dir, err := ioutil.TempDir("", "seaice")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "sweep.png")
	if err := SweepPlot(seaice.Summarize(testRecords()), filename); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filename); err != nil || info.Size() == 0 {
		t.Errorf("plot file missing or empty: %v", err)
	}
}
