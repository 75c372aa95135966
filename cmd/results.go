package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/enersys/microplan/config"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print the cost breakdown and investment decisions of the last run",
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := cfg.Study.ResultsDir

	obj, err := readCSV(filepath.Join(dir, "obj.csv"))
	if err != nil {
		return fmt.Errorf("no results in %s, run solve first: %w", dir, err)
	}
	for _, row := range obj {
		if len(row) == 2 {
			fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", row[0], row[1])
		}
	}

	stems := []struct{ stem, label string }{
		{"xg", "conventional"},
		{"xs", "solar"},
		{"xw", "wind"},
		{"xb", "battery"},
	}
	for _, s := range stems {
		rows, err := readCSV(filepath.Join(dir, s.stem+".csv"))
		if err != nil || len(rows) < 2 {
			continue
		}
		for i, v := range rows[1] {
			fmt.Fprintf(cmd.OutOrStdout(), "%s unit %d: %s\n", s.label, i, v)
		}
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
