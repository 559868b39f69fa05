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

// Package seaiceutil holds the configuration and command-line interface
// for the seaice sea ice extent comparison.
package seaiceutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/seaice"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to seaice.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "begin",
			usage: `
              begin specifies the first date (inclusive) of the analysis
              period. Format = "YYYYMMDD".`,
			shorthand:  "b",
			defaultVal: "20150101",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "end",
			usage: `
              end specifies the last date (exclusive) of the analysis
              period. Format = "YYYYMMDD".`,
			shorthand:  "e",
			defaultVal: "20150201",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "hemisphere",
			usage: `
              hemisphere specifies the analysis domain; either
              "north" or "south".`,
			defaultVal: "north",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "products",
			usage: `
              products specifies the sea ice products to process. The
              available products are "cdr" (the NOAA/NSIDC passive
              microwave climate data record) and "nic" (the U.S.
              National Ice Center marginal ice zone charts).`,
			defaultVal: []string{"cdr", "nic"},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), medianCmd.Flags(), downloadCmd.Flags()},
		},
		{
			name: "CDR.Dir",
			usage: `
              CDR.Dir is the directory holding the daily CDR concentration
              NetCDF files. It may be a local directory or a blob storage
              location (gs://, s3://, or file://).`,
			defaultVal: "cdr",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), medianCmd.Flags(), downloadCmd.Flags()},
		},
		{
			name: "NIC.Dir",
			usage: `
              NIC.Dir is the directory holding the daily zipped NIC
              marginal ice zone shapefiles. It may be a local directory or
              a blob storage location (gs://, s3://, or file://).`,
			defaultVal: "nic",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), medianCmd.Flags(), downloadCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory that output files are written
              to. It is created if it doesn't exist.`,
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), medianCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "Thresh.Lower",
			usage: `
              Thresh.Lower is the first concentration threshold
              (inclusive) of the extent sweep.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "Thresh.Upper",
			usage: `
              Thresh.Upper is the end (exclusive) of the extent
              threshold sweep.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "Thresh.Interval",
			usage: `
              Thresh.Interval is the step between consecutive thresholds
              in the extent sweep.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "Median.CDRThreshold",
			usage: `
              Median.CDRThreshold is the concentration threshold applied
              to the CDR grids when building monthly median composites.`,
			defaultVal: 0.8,
			flagsets:   []*pflag.FlagSet{medianCmd.Flags()},
		},
		{
			name: "Median.NICThreshold",
			usage: `
              Median.NICThreshold is the concentration threshold applied
              to the NIC grids when building monthly median composites.
              The default selects the pack ice polygons (8/10 cover and
              above).`,
			defaultVal: 0.8,
			flagsets:   []*pflag.FlagSet{medianCmd.Flags()},
		},
		{
			name: "DerivedColumns",
			usage: `
              DerivedColumns maps extra output table column names to
              expressions over the sweep areas, where the variable a10
              holds the area at the 0.10 threshold. The default adds the
              marginal ice zone area.`,
			defaultVal: map[string]string{"miz": "a10 - a80"},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "xlsx",
			usage: `
              xlsx specifies whether to additionally write the output
              table as a spreadsheet.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "CacheSize",
			usage: `
              CacheSize is the number of daily grids to hold in memory.`,
			defaultVal: seaice.DefaultCacheSize,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), medianCmd.Flags()},
		},
		{
			name: "Download.Overwrite",
			usage: `
              Download.Overwrite specifies whether to re-download files
              that already exist locally.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Plot.Threshold",
			usage: `
              Plot.Threshold is the concentration threshold whose areas
              are plotted in the extent time series.`,
			defaultVal: 0.8,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SEAICE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(downloadCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(medianCmd)
	Root.AddCommand(plotCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Printf(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("seaice: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "seaice",
	Short: "Compare sea ice extent between the CDR and NIC products.",
	Long: `seaice compares sea ice extent between the NOAA/NSIDC sea ice
concentration climate data record (CDR) and the U.S. National Ice Center
(NIC) marginal ice zone charts. Use the subcommands specified below to
download input data, calculate extent areas over a threshold sweep, and
build monthly median ice edges.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'SEAICE_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of seaice.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("seaice v%s\n", seaice.Version)
	},
	DisableAutoGenTag: true,
}

// downloadCmd fetches the input files for the configured date range.
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download input data.",
	Long: `download fetches the daily CDR concentration files and zipped NIC
marginal ice zone shapefiles for the configured date range into CDR.Dir
and NIC.Dir. Files that already exist locally are kept unless
Download.Overwrite is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := checkDates(Cfg.GetString("begin"), Cfg.GetString("end"))
		if err != nil {
			return err
		}
		hemi, err := checkHemisphere(Cfg.GetString("hemisphere"))
		if err != nil {
			return err
		}
		products, err := checkProducts(Cfg.GetStringSlice("products"))
		if err != nil {
			return err
		}
		return DownloadRange(start, end, hemi, products,
			os.ExpandEnv(Cfg.GetString("CDR.Dir")),
			os.ExpandEnv(Cfg.GetString("NIC.Dir")),
			Cfg.GetBool("Download.Overwrite"))
	},
	DisableAutoGenTag: true,
}

// statsCmd calculates extent areas over the threshold sweep.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Calculate extent areas over a threshold sweep.",
	Long: `stats classifies each daily concentration grid in the configured
date range against every threshold in the sweep [Thresh.Lower,
Thresh.Upper) and writes the resulting extent areas to a delimited table
in OutputDir, together with any configured derived columns. Dates whose
input files are missing become gaps rather than zero-area days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msgChan := outChan()

		start, end, err := checkDates(Cfg.GetString("begin"), Cfg.GetString("end"))
		if err != nil {
			return err
		}
		sources, _, err := makeSources(Cfg, start, end, msgChan)
		if err != nil {
			return err
		}
		lower := Cfg.GetFloat64("Thresh.Lower")
		upper := Cfg.GetFloat64("Thresh.Upper")
		sweep, err := seaice.NewSweep(lower, upper, Cfg.GetFloat64("Thresh.Interval"))
		if err != nil {
			return err
		}
		outputDir := os.ExpandEnv(Cfg.GetString("OutputDir"))
		f, err := seaice.OpenTableFile(outputDir, lower, upper)
		if err != nil {
			return err
		}
		defer f.Close()
		w, err := seaice.NewTableWriter(f, GetStringMapString("DerivedColumns", Cfg))
		if err != nil {
			return err
		}
		summary, err := seaice.RunStats(sources, start, end, sweep, w, msgChan)
		if err != nil {
			return err
		}
		msgChan <- fmt.Sprintf("Finished with %d data gaps.\n", summary.Gaps())

		tablePath := filepath.Join(outputDir, seaice.StatsFileName(lower, upper))
		if err := reportStats(cmd, tablePath); err != nil {
			return err
		}
		if Cfg.GetBool("xlsx") {
			if err := tableToXLSX(tablePath); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// medianCmd builds monthly median ice edge composites.
var medianCmd = &cobra.Command{
	Use:   "median",
	Short: "Build monthly median ice edges.",
	Long: `median builds a monthly median ice extent composite for every
calendar month lying entirely within the configured date range, for each
product at its configured threshold. For each composite it writes a
NetCDF file holding the daily occupancy frequency, the median extent,
and the median ice edge, plus a point shapefile of the edge cell
centers, to OutputDir. Days with missing input shrink the frequency
denominator rather than counting as open water.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msgChan := outChan()

		start, end, err := checkDates(Cfg.GetString("begin"), Cfg.GetString("end"))
		if err != nil {
			return err
		}
		sources, geometry, err := makeSources(Cfg, start, end, msgChan)
		if err != nil {
			return err
		}
		w := &seaice.CompositeFiles{
			Dir:      os.ExpandEnv(Cfg.GetString("OutputDir")),
			Geometry: geometry,
		}
		thresholds := map[string]float64{
			"cdr": Cfg.GetFloat64("Median.CDRThreshold"),
			"nic": Cfg.GetFloat64("Median.NICThreshold"),
		}
		summary, err := seaice.RunMedian(sources, start, end, thresholds, w, msgChan)
		if err != nil {
			return err
		}
		for product, months := range summary.SkippedMonths {
			for _, m := range months {
				msgChan <- fmt.Sprintf("No %s composite for %s.\n", product, m.Format("2006-01"))
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// plotCmd plots the output of a previous stats run.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot extent areas.",
	Long: `plot reads the extent area table written by a previous stats run
and writes two plots to OutputDir: a time series of the extent area for
each product at Plot.Threshold, and the mean extent area for each
product across the threshold sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := os.ExpandEnv(Cfg.GetString("OutputDir"))
		lower := Cfg.GetFloat64("Thresh.Lower")
		upper := Cfg.GetFloat64("Thresh.Upper")
		f, err := os.Open(filepath.Join(outputDir, seaice.StatsFileName(lower, upper)))
		if err != nil {
			return fmt.Errorf("seaice: opening area table (has 'stats' been run?): %v", err)
		}
		defer f.Close()
		records, err := seaice.ReadTable(f)
		if err != nil {
			return err
		}
		if err := TimeSeriesPlot(records, Cfg.GetFloat64("Plot.Threshold"),
			filepath.Join(outputDir, "areas_timeseries.png")); err != nil {
			return err
		}
		return SweepPlot(seaice.Summarize(records),
			filepath.Join(outputDir, "areas_by_threshold.png"))
	},
	DisableAutoGenTag: true,
}

// reportStats prints per-product, per-threshold summary statistics of
// the daily areas in the given table.
func reportStats(cmd *cobra.Command, tablePath string) error {
	f, err := os.Open(tablePath)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := seaice.ReadTable(f)
	if err != nil {
		return err
	}
	cmd.Printf("%-8s %9s %6s %14s %14s %14s %14s\n",
		"product", "threshold", "days", "mean", "stddev", "min", "max")
	for _, s := range seaice.Summarize(records) {
		cmd.Printf("%-8s %9.2f %6d %14.1f %14.1f %14.1f %14.1f\n",
			s.Product, s.Threshold, s.Days, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return nil
}

// tableToXLSX reads back a delimited area table and writes it as a
// spreadsheet alongside it.
func tableToXLSX(tablePath string) error {
	f, err := os.Open(tablePath)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := seaice.ReadTable(f)
	if err != nil {
		return err
	}
	xlsxPath := tablePath[0:len(tablePath)-len(filepath.Ext(tablePath))] + ".xlsx"
	return seaice.WriteXLSX(xlsxPath, records)
}
