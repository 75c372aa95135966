// Package dataset reads the delimited study tables into a model.System,
// converting absolute power quantities to per-unit exactly once. Every
// table is validated for column presence and numeric parseability before
// use; errors carry file, column and row context.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/enersys/microplan/core/model"
)

// Table file names of one study directory.
const (
	FileCandConv   = "cgen_dist.csv"
	FileExistConv  = "egen_dist.csv"
	FileCandSolar  = "csol_dist.csv"
	FileExistSolar = "esol_dist.csv"
	FileCandWind   = "cwin_dist.csv"
	FileExistWind  = "ewin_dist.csv"
	FileBattery    = "cbat_dist.csv"
	FileLines      = "elin_dist.csv"
	FileDemandP    = "pdem_dist.csv"
	FileDemandQ    = "qdem_dist.csv"
	FileMultP      = "prep_dist.csv"
	FileMultQ      = "qrep_dist.csv"
	FileSolar      = "psol_dist.csv"
	FileWind       = "pwin_dist.csv"
	FileDurations  = "dtim_dist.csv"
)

// Load reads all study tables from dir and returns a validated System with
// power and energy bounds divided by basePower.
func Load(dir string, basePower float64) (*model.System, error) {
	if basePower <= 0 {
		return nil, fmt.Errorf("base power must be positive, got %g", basePower)
	}
	sys := &model.System{BasePower: basePower}

	var err error
	if sys.CandConv, err = readUnits(filepath.Join(dir, FileCandConv), basePower, true); err != nil {
		return nil, err
	}
	if sys.ExistConv, err = readUnits(filepath.Join(dir, FileExistConv), basePower, false); err != nil {
		return nil, err
	}
	if sys.CandSolar, err = readUnits(filepath.Join(dir, FileCandSolar), basePower, true); err != nil {
		return nil, err
	}
	if sys.ExistSolar, err = readUnits(filepath.Join(dir, FileExistSolar), basePower, false); err != nil {
		return nil, err
	}
	if sys.CandWind, err = readUnits(filepath.Join(dir, FileCandWind), basePower, true); err != nil {
		return nil, err
	}
	if sys.ExistWind, err = readUnits(filepath.Join(dir, FileExistWind), basePower, false); err != nil {
		return nil, err
	}
	if sys.Batteries, err = readBatteries(filepath.Join(dir, FileBattery), basePower); err != nil {
		return nil, err
	}
	if sys.Lines, err = readLines(filepath.Join(dir, FileLines)); err != nil {
		return nil, err
	}
	if sys.DemandP, err = readMatrix(filepath.Join(dir, FileDemandP)); err != nil {
		return nil, err
	}
	if sys.DemandQ, err = readMatrix(filepath.Join(dir, FileDemandQ)); err != nil {
		return nil, err
	}
	if sys.MultP, err = readMatrix(filepath.Join(dir, FileMultP)); err != nil {
		return nil, err
	}
	if sys.MultQ, err = readMatrix(filepath.Join(dir, FileMultQ)); err != nil {
		return nil, err
	}
	if sys.SolarAvail, err = readMatrix(filepath.Join(dir, FileSolar)); err != nil {
		return nil, err
	}
	if sys.WindAvail, err = readMatrix(filepath.Join(dir, FileWind)); err != nil {
		return nil, err
	}
	if sys.Durations, err = readDurations(filepath.Join(dir, FileDurations)); err != nil {
		return nil, err
	}

	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dir, err)
	}
	return sys, nil
}

// table is a parsed delimited file with named column access.
type table struct {
	path    string
	columns map[string]int
	rows    [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", filepath.Base(path))
	}
	t := &table{path: filepath.Base(path), columns: make(map[string]int), rows: records[1:]}
	for i, name := range records[0] {
		t.columns[name] = i
	}
	return t, nil
}

func (t *table) require(names ...string) error {
	for _, n := range names {
		if _, ok := t.columns[n]; !ok {
			return fmt.Errorf("%s: missing column %q", t.path, n)
		}
	}
	return nil
}

func (t *table) float(row int, col string) (float64, error) {
	idx := t.columns[col]
	if idx >= len(t.rows[row]) {
		return 0, fmt.Errorf("%s: row %d: missing value for column %q", t.path, row+1, col)
	}
	v, err := strconv.ParseFloat(t.rows[row][idx], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: row %d: column %q: %w", t.path, row+1, col, err)
	}
	return v, nil
}

func (t *table) int(row int, col string) (int, error) {
	v, err := t.float(row, col)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func readUnits(path string, base float64, candidate bool) ([]model.Unit, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	cols := []string{"bus", "pmin", "pmax", "qmin", "qmax", "ocost"}
	if candidate {
		cols = append(cols, "icost")
	}
	if err := t.require(cols...); err != nil {
		return nil, err
	}
	units := make([]model.Unit, 0, len(t.rows))
	for i := range t.rows {
		var u model.Unit
		if u.Bus, err = t.int(i, "bus"); err != nil {
			return nil, err
		}
		fields := []struct {
			dst   *float64
			col   string
			scale bool
		}{
			{&u.PMin, "pmin", true},
			{&u.PMax, "pmax", true},
			{&u.QMin, "qmin", true},
			{&u.QMax, "qmax", true},
			{&u.OperCost, "ocost", false},
		}
		for _, f := range fields {
			v, err := t.float(i, f.col)
			if err != nil {
				return nil, err
			}
			if f.scale {
				v /= base
			}
			*f.dst = v
		}
		if candidate {
			if u.InvestCost, err = t.float(i, "icost"); err != nil {
				return nil, err
			}
		}
		units = append(units, u)
	}
	return units, nil
}

func readBatteries(path string, base float64) ([]model.Battery, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("bus", "emin", "emax", "eini", "ec", "ed", "pmin", "pmax", "qmin", "qmax", "icost"); err != nil {
		return nil, err
	}
	bats := make([]model.Battery, 0, len(t.rows))
	for i := range t.rows {
		var b model.Battery
		if b.Bus, err = t.int(i, "bus"); err != nil {
			return nil, err
		}
		fields := []struct {
			dst   *float64
			col   string
			scale bool
		}{
			{&b.EMin, "emin", true},
			{&b.EMax, "emax", true},
			{&b.EIni, "eini", true},
			{&b.PMin, "pmin", true},
			{&b.PMax, "pmax", true},
			{&b.QMin, "qmin", true},
			{&b.QMax, "qmax", true},
			{&b.ChargeEff, "ec", false},
			{&b.DischargeEff, "ed", false},
			{&b.InvestCost, "icost", false},
		}
		for _, f := range fields {
			v, err := t.float(i, f.col)
			if err != nil {
				return nil, err
			}
			if f.scale {
				v /= base
			}
			*f.dst = v
		}
		bats = append(bats, b)
	}
	return bats, nil
}

func readLines(path string) ([]model.Line, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("from", "to", "ini", "res", "rea", "pmax", "qmax"); err != nil {
		return nil, err
	}
	lines := make([]model.Line, 0, len(t.rows))
	for i := range t.rows {
		var l model.Line
		if l.From, err = t.int(i, "from"); err != nil {
			return nil, err
		}
		if l.To, err = t.int(i, "to"); err != nil {
			return nil, err
		}
		ini, err := t.int(i, "ini")
		if err != nil {
			return nil, err
		}
		l.InService = ini != 0
		if l.Res, err = t.float(i, "res"); err != nil {
			return nil, err
		}
		if l.Rea, err = t.float(i, "rea"); err != nil {
			return nil, err
		}
		if l.PMax, err = t.float(i, "pmax"); err != nil {
			return nil, err
		}
		if l.QMax, err = t.float(i, "qmax"); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// readMatrix reads a numeric matrix with one row per period. The header
// row only establishes the column count.
func readMatrix(path string) ([][]float64, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(t.rows))
	for i, row := range t.rows {
		vals := make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: column %d: %w", t.path, i+1, j, err)
			}
			vals[j] = v
		}
		out = append(out, vals)
	}
	return out, nil
}

func readDurations(path string) ([]float64, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("dt"); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(t.rows))
	for i := range t.rows {
		v, err := t.float(i, "dt")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
