// Command driftsim runs forward-time population genetic simulations
// described in its embedded scripting language.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oxhq/driftsim/internal/cli"
	"github.com/oxhq/driftsim/internal/config"
)

type rootFlags struct {
	seed   int64
	dbPath string
	trace  bool
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.Int64Var(&f.seed, "seed", 0, "random seed (0 derives one from PID and time)")
	fs.StringVar(&f.dbPath, "db", "", "sqlite database for run records")
	fs.BoolVar(&f.trace, "trace", false, "log tokens, AST, and evaluation")
}

func (f *rootFlags) apply(cfg *config.Config) {
	if f.seed != 0 {
		cfg.Seed = f.seed
	}
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.trace {
		cfg.LogTokens, cfg.LogAST, cfg.LogEval = true, true, true
	}
}

func main() {
	cfg := config.Load()

	var (
		flags   rootFlags
		ticks   int64
		dumpAST bool
	)

	root := &cobra.Command{
		Use:           "driftsim",
		Short:         "Forward-time population genetic simulator with an embedded scripting language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a simulation file in batch mode",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			flags.apply(cfg)
			os.Exit(cli.NewRunner(cfg).RunFile(args[0], ticks))
		},
	}
	runCmd.Flags().Int64Var(&ticks, "ticks", 10, "number of ticks to run")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive interpreter",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			flags.apply(cfg)
			os.Exit(cli.NewRunner(cfg).REPL(os.Stdin))
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Parse a simulation file without running it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			flags.apply(cfg)
			os.Exit(cli.NewRunner(cfg).Check(args[0], dumpAST))
		},
	}
	checkCmd.Flags().BoolVar(&dumpAST, "ast", false, "dump the parsed tree")

	root.AddCommand(runCmd, replCmd, checkCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
