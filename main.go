/*
Pursuit simulates a predator chasing a prey on a toroidal grid. Both agents follow fixed,
hand-set movement policies; each game runs until the predator lands on the prey's cell, and
the number of turns this takes is averaged over many games. Afterwards a short value iteration
sweep estimates, per cell, how valuable that cell is to a predator hunting a prey that never
moves from its starting cell. None of this learns anything: the policies are static and the
value iteration runs a fixed number of sweeps, the point is just to watch the dynamics.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pursuit/models"
	"pursuit/reinforcement"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigPath = "./config.yaml"

var (
	vp      = viper.New()
	rootCmd = &cobra.Command{
		Use:   "pursuit",
		Short: "Predator/prey pursuit on a toroidal grid",
		Long: `Plays predator/prey games until capture and reports the average number of
turns needed, then prints a value iteration estimate for the predator.

Flags override the config file; flags can also be given as PURSUIT_* environment variables.`,
		SilenceUsage: true,
		RunE:         runApp,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.String("config", defaultConfigPath, "path to the experiment yaml config")
	flags.Int("runs", 1, "number of games to play")
	flags.Float64("discount", reinforcement.DEFAULT_DISCOUNT, "value iteration discount factor")
	flags.Int("loops", reinforcement.DEFAULT_LOOPS, "number of value iteration sweeps")
	flags.Int("verbosity", reinforcement.EVERY_TURN, "0 silent, 1 print on capture, 2 print every turn")
	flags.Int("workers", 1, "number of concurrent game loops, each with its own agents")
	flags.Int64("seed", 0, "random seed, 0 for time based")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored grid output")

	_ = vp.BindPFlags(flags)
	vp.SetEnvPrefix("PURSUIT")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl), nil
}

// loadConfig reads the config file, then applies any flags or env vars that were set.
// A missing file is only an error when its path was given explicitly.
func loadConfig(v *viper.Viper) (cfg *reinforcement.TrainingConfig, err error) {
	cfg = reinforcement.DefaultTrainingConfig()
	path := v.GetString("config")
	_, statErr := os.Stat(path)
	if statErr == nil || v.IsSet("config") {
		if cfg, err = reinforcement.FromYaml(path); err != nil {
			return nil, err
		}
	}

	applyOverrides(v, cfg)
	return cfg, cfg.Validate()
}

// applyOverrides copies explicitly set flags or env vars onto @cfg.
func applyOverrides(v *viper.Viper, cfg *reinforcement.TrainingConfig) {
	if v.IsSet("runs") {
		cfg.Experiment.Runs = v.GetInt("runs")
	}
	if v.IsSet("workers") {
		cfg.Experiment.Workers = v.GetInt("workers")
	}
	if v.IsSet("seed") {
		cfg.Experiment.Seed = v.GetInt64("seed")
	}
	if v.IsSet("verbosity") {
		cfg.Experiment.Verbosity = v.GetInt("verbosity")
	}
	if v.IsSet("discount") {
		cfg.SetHyperParam(reinforcement.DISCOUNT_PARAM, v.GetFloat64("discount"))
	}
	if v.IsSet("loops") {
		cfg.SetHyperParam(reinforcement.LOOPS_PARAM, float64(v.GetInt("loops")))
	}
}

func runApp(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(vp.GetString("log-level"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(vp)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return run(ctx, cmd.OutOrStdout(), cfg, &logger, !vp.GetBool("no-color"))
}

// run plays the experiment, prints a reward line per game and the summary, then prints
// the value iteration grid for a prey fixed at its start cell.
func run(
	ctx context.Context,
	out io.Writer,
	cfg *reinforcement.TrainingConfig,
	logger *zerolog.Logger,
	colors bool,
) error {
	result, err := reinforcement.RunExperiment(ctx, cfg, reinforcement.ExperimentOptions{
		Logger: logger,
		OnTurn: reinforcement.ConsoleRenderer(out, cfg.Experiment.Verbosity, colors),
	})
	if err != nil {
		return err
	}

	for _, r := range result.Results {
		fmt.Fprintf(out, "Cumulative reward for game %d: %d\n", r.Run+1, r.CumulativeReward)
	}
	summary := result.Summary
	fmt.Fprintf(out,
		"Average amount of time steps needed before catch over %s rounds is %s, standard deviation is %s\n",
		humanize.Comma(int64(summary.Runs)),
		humanize.CommafWithDigits(summary.Mean, 2),
		humanize.CommafWithDigits(summary.StdDev, 2))

	predatorPolicy, _, err := cfg.ResolvePolicies()
	if err != nil {
		return err
	}
	values, err := reinforcement.ValueIteration(
		cfg.Game,
		predatorPolicy,
		cfg.Game.PreyStart,
		cfg.Discount(),
		cfg.Loops())
	if err != nil {
		return err
	}
	models.ShowValues(out, values, colors)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
		}
		os.Exit(1)
	}
}
