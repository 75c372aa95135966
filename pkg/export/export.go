// Package export writes planning results to disk as CSV files, one file
// per variable group plus an objective summary.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/enersys/microplan/core/plan"
)

// WriteResults recreates dir and writes obj.csv plus one CSV per result
// table, named after the table's stem (xg.csv, pcg.csv, ...).
func WriteResults(dir string, r *plan.Results) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear results dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "obj.csv"), func(w io.Writer) error {
		return WriteObjective(w, r)
	}); err != nil {
		return err
	}

	tables := append(r.InvestmentTables(), r.OperationalTables()...)
	for _, t := range tables {
		t := t
		if t.Name == "" {
			continue
		}
		name := filepath.Join(dir, t.Name+".csv")
		if err := writeFile(name, func(w io.Writer) error {
			return WriteTable(w, t)
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteObjective writes the cost breakdown rows.
func WriteObjective(w io.Writer, r *plan.Results) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"total cost", formatFloat(r.Objective)},
		{"total investment cost", formatFloat(r.Invest)},
		{"total operation cost", formatFloat(r.Operation)},
		{"total shedding cost", formatFloat(r.Shedding)},
	}
	for _, rec := range rows {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes one result table with unit indices as the header.
func WriteTable(w io.Writer, t plan.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeFile(name string, fn func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(name), err)
	}
	return f.Close()
}
