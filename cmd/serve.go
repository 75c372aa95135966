package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/enersys/microplan/api"
	"github.com/enersys/microplan/config"
	"github.com/enersys/microplan/core/dataset"
	"github.com/enersys/microplan/core/plan"
	"github.com/enersys/microplan/infra/logger"
	"github.com/enersys/microplan/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning REST API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("serve-command")

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

	if cfg.Metrics.PromEnabled {
		addr := cfg.Metrics.PromAddr
		if addr == "" {
			addr = ":2112"
		}
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				logg.Errorf("prom server: %v", err)
			}
		}()
	}

	server := api.NewServer(study, newSolver(cfg.Solver, logg), logg)
	srv := &http.Server{Addr: cfg.API.Addr, Handler: server.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Errorf("api shutdown: %v", err)
		}
	}()

	logg.Infof("planning API listening on %s", cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
