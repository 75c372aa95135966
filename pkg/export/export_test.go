package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/core/solver"
)

func sampleResults() *plan.Results {
	return &plan.Results{
		RunID:     "run-1",
		Status:    solver.StatusOptimal,
		Objective: 30,
		Invest:    0,
		Operation: 30,
		Shedding:  0,
		InvestConv: plan.Table{
			Name:    "xg",
			Columns: []string{"0"},
			Rows:    [][]float64{{1}},
		},
		CandConvP: plan.Table{
			Name:    "pcg",
			Columns: []string{"0"},
			Rows:    [][]float64{{6}},
		},
	}
}

func TestWriteResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	require.NoError(t, WriteResults(dir, sampleResults()))

	obj, err := os.ReadFile(filepath.Join(dir, "obj.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(obj), "total cost,30")
	assert.Contains(t, string(obj), "total operation cost,30")

	xg, err := os.ReadFile(filepath.Join(dir, "xg.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(xg)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0", lines[0])
	assert.Equal(t, "1", lines[1])

	pcg, err := os.ReadFile(filepath.Join(dir, "pcg.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(pcg), "6")
}

func TestWriteResultsRecreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "stale.csv")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, WriteResults(dir, sampleResults()))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale files should be removed")
}
