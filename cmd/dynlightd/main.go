package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-theft-craft/dynlights/internal/dynlight/config"
	"github.com/go-theft-craft/dynlights/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dynlightd",
		Short:        "Dynamic light engine daemon",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newBenchCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the light simulation with a metrics endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := new(slog.LevelVar)
			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

			fromFile, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			config.Merge(cfg, fromFile, explicitFlags(cmd.Flags()))
			if err := cfg.Validate(); err != nil {
				return err
			}
			l, _ := cfg.Level()
			level.Set(l)

			srv, err := server.New(cfg, log)
			if err != nil {
				log.Error("create server", "error", err)
				return err
			}
			if err := srv.Start(cmd.Context()); err != nil {
				log.Error("server error", "error", err)
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "dynlights.json", "JSON config file, ignored if missing")
	f.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "simulation ticks per second")
	f.Var(&cfg.Mode, "mode", "dynamic lights mode: off, fastest, fast or fancy")
	f.IntVar(&cfg.TableCapacity, "table-capacity", cfg.TableCapacity, "light lookup table slots, rounded up to a power of two")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "metrics listen address, empty to disable")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&cfg.LuminanceTable, "luminance-table", cfg.LuminanceTable, "YAML item luminance table, watched for changes")
	f.BoolVar(&cfg.WaterSensitiveCheck, "water-sensitive-check", cfg.WaterSensitiveCheck, "turn off water sensitive items under water")
	f.BoolVar(&cfg.EntitiesLightSource, "entities-light-source", cfg.EntitiesLightSource, "entities emit light")
	f.BoolVar(&cfg.SelfLightSource, "self-light-source", cfg.SelfLightSource, "the viewer emits light")
	f.IntVar(&cfg.Entities, "entities", cfg.Entities, "simulated light carrying entities")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "simulation seed")
	return cmd
}

func newBenchCmd() *cobra.Command {
	opts := server.BenchOptions{Capacity: 1024, Entities: 500, Ticks: 200, Seed: 1}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time engine rebuilds and light queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Ticks <= 0 {
				return fmt.Errorf("ticks must be positive, got %d", opts.Ticks)
			}
			res := server.Bench(opts)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sources %d, fragments %d, dropped %d, sections scheduled %d\n",
				res.Sources, res.Fragments, res.Dropped, res.Sections)
			printSummary(out, "tick", res.Tick)
			printSummary(out, "rebuild", res.Rebuild)
			printSummary(out, "query", res.Query)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Capacity, "table-capacity", opts.Capacity, "light lookup table slots")
	f.IntVar(&opts.Entities, "entities", opts.Entities, "simulated light carrying entities")
	f.IntVar(&opts.Ticks, "ticks", opts.Ticks, "ticks to run")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "simulation seed")
	return cmd
}

func printSummary(out io.Writer, name string, s server.Summary) {
	fmt.Fprintf(out, "%-8s mean %-10v stddev %-10v p50 %-10v p99 %-10v max %v\n",
		name, s.Mean, s.StdDev, s.P50, s.P99, s.Max)
}

// explicitFlags returns the names of the flags set on the command line.
func explicitFlags(fs *pflag.FlagSet) map[string]bool {
	explicit := make(map[string]bool)
	fs.Visit(func(f *pflag.Flag) { explicit[f.Name] = true })
	return explicit
}
