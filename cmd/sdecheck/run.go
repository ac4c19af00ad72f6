package main

import (
	"log/slog"

	"github.com/sdelab/sdecheck/internal/config"
	"github.com/sdelab/sdecheck/internal/experiment"
	"github.com/sdelab/sdecheck/internal/logging"
	"github.com/sdelab/sdecheck/internal/sde"
)

// loggerSet bundles the operational logger with the optional run tracer.
type loggerSet struct {
	logger *slog.Logger
	trace  *logging.RunLogger
}

// runPaths executes the sample-path comparison experiment.
func runPaths(cfg *config.Config, ls *loggerSet) error {
	p := cfg.PathComparison
	ls.logger.Info("running path comparison",
		"batch_size", p.BatchSize, "dim", p.Dim, "steps", p.Steps, "dt", p.DT)

	model := sde.NewGeometricBM(cfg.Model.Mu, cfg.Model.Sigma, p.Dim)
	return experiment.PathComparison(experiment.PathConfig{
		BatchSize: p.BatchSize,
		Dim:       p.Dim,
		Steps:     p.Steps,
		T0:        p.T0,
		T1:        p.T1,
		DT:        p.DT,
		Seed:      cfg.Seed,
		OutDir:    cfg.Output.Dir,
	}, model, ls.logger)
}

// runRate executes the strong-order convergence experiment.
func runRate(cfg *config.Config, ls *loggerSet) error {
	cv := cfg.Convergence
	ls.logger.Info("running convergence study",
		"batch_size", cv.BatchSize, "dim", cv.Dim, "step_sizes", len(cv.DTs))

	defer ls.trace.Close()
	model := sde.NewGeometricBM(cfg.Model.Mu, cfg.Model.Sigma, cv.Dim)
	_, err := experiment.ConvergenceOrder(experiment.RateConfig{
		BatchSize: cv.BatchSize,
		Dim:       cv.Dim,
		T0:        cv.T0,
		T1:        cv.T1,
		DTs:       cv.DTs,
		Seed:      cfg.Seed,
		OutDir:    cfg.Output.Dir,
		Parallel:  cv.Parallel,
		Trace:     ls.trace,
	}, model, ls.logger)
	return err
}
