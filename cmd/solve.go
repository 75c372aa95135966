package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/enersys/microplan/config"
	"github.com/enersys/microplan/core/dataset"
	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/core/solver"
	"github.com/enersys/microplan/infra/logger"
	"github.com/enersys/microplan/infra/metrics"
	"github.com/enersys/microplan/infra/solver/cbc"
	"github.com/enersys/microplan/infra/solver/remote"
	"github.com/enersys/microplan/infra/solver/simplex"
	"github.com/enersys/microplan/pkg/export"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the configured study and export result tables",
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("solve-command")

	sys, err := dataset.Load(cfg.Study.DataDir, cfg.Study.BasePowerKVA)
	if err != nil {
		return fmt.Errorf("load study: %w", err)
	}
	opts, err := cfg.Plan.Options()
	if err != nil {
		return err
	}
	study, err := plan.NewStudy(sys, opts, logg)
	if err != nil {
		return err
	}
	sv := newSolver(cfg.Solver, logg)
	sink := newSink(ctx, cfg.Metrics, logg)

	if cfg.Solver.TimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Solver.TimeoutS)*time.Second)
		defer cancel()
	}

	start := time.Now()
	r, err := study.Solve(ctx, sv)
	elapsed := time.Since(start)

	ev := metrics.SolveEvent{
		Solver:   sv.Name(),
		Duration: elapsed,
		SolvedAt: time.Now(),
	}
	if err != nil {
		ev.Status = solveErrStatus(err)
		if rerr := sink.RecordSolve(ev); rerr != nil {
			logg.Warnf("record solve event: %v", rerr)
		}
		return err
	}
	ev.RunID = r.RunID
	ev.Status = r.Status.String()
	ev.Objective = r.Objective
	if rerr := sink.RecordSolve(ev); rerr != nil {
		logg.Warnf("record solve event: %v", rerr)
	}

	if err := export.WriteResults(cfg.Study.ResultsDir, r); err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	logg.Infof("run %s: objective=%g (investment=%g operation=%g shedding=%g), results in %s",
		r.RunID, r.Objective, r.Invest, r.Operation, r.Shedding, cfg.Study.ResultsDir)
	return nil
}

// newSolver builds the backend selected by the configuration. The backend
// set is validated at load time.
func newSolver(cfg config.SolverConfig, logg logger.Logger) solver.Solver {
	switch cfg.Backend {
	case "cbc":
		return cbc.New(cfg.CBCPath, cfg.CBCVerbose, logg)
	case "remote":
		return remote.New(cfg.Remote, logg)
	default:
		return simplex.New(logg)
	}
}

// newSink assembles the metrics fan-out: Prometheus and InfluxDB when
// configured, a no-op otherwise.
func newSink(ctx context.Context, cfg metrics.Config, logg logger.Logger) metrics.Sink {
	var sinks []metrics.Sink
	if cfg.PromEnabled {
		if cfg.PromAddr == "" {
			cfg.PromAddr = ":2112"
		}
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			logg.Errorf("prom sink: %v", err)
		} else {
			sinks = append(sinks, sink)
			go func() {
				if err := metrics.StartPromServer(ctx, cfg.PromAddr); err != nil {
					logg.Errorf("prom server: %v", err)
				}
			}()
		}
	}
	if cfg.InfluxURL != "" {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg))
	}
	switch len(sinks) {
	case 0:
		return metrics.NopSink{}
	case 1:
		return sinks[0]
	default:
		return metrics.NewMultiSink(sinks...)
	}
}

func solveErrStatus(err error) string {
	switch {
	case errors.Is(err, solver.ErrInfeasible):
		return "infeasible"
	case errors.Is(err, solver.ErrUnbounded):
		return "unbounded"
	case errors.Is(err, solver.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, solver.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
