// Command sdecheck validates stochastic integrators against the
// closed-form solution of a known SDE under a shared noise realization.
//
// Run without arguments it executes the sample-path comparison followed
// by the strong-order convergence study, writing PNG artifacts under the
// configured output directory.
package main

import (
	"fmt"
	"os"

	"github.com/sdelab/sdecheck/internal/config"
	"github.com/sdelab/sdecheck/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sdecheck",
		Short: "Strong-order diagnostics for SDE integration schemes",
		Long: `sdecheck drives Euler-Maruyama, Milstein, and a stochastic Runge-Kutta
scheme over one shared Brownian path, compares them against the analytical
solution, and fits each scheme's empirical strong order of convergence.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := runPaths(cfg, logger); err != nil {
				return err
			}
			return runRate(cfg, logger)
		},
	}

	// Global flags; flag values win over config file and environment.
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("out", "", "Output directory for plot artifacts")
	rootCmd.PersistentFlags().Int64("seed", -1, "Random seed (>= 0 to override config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info or debug")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPathsCmd(),
		newRateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sdecheck version %s\n", version)
		},
	}
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Run only the sample-path comparison experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runPaths(cfg, logger)
		},
	}
}

func newRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate",
		Short: "Run only the strong-order convergence experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			return runRate(cfg, logger)
		},
	}
}

// setup loads configuration, applies flag overrides, and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *loggerSet, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Output.Dir = out
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); seed >= 0 {
		cfg.Seed = seed
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	ls := &loggerSet{
		logger: logging.NewLogger(cfg.Logging.Level, os.Stderr),
		trace:  logging.NewRunLogger(cfg.Output.Dir, cfg.Logging.Level),
	}
	return cfg, ls, nil
}
