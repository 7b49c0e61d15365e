// Package cli implements the batch and interactive entry points shared by
// the command-line frontends.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/oxhq/driftsim/db"
	"github.com/oxhq/driftsim/internal/config"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/interp"
	"github.com/oxhq/driftsim/internal/parser"
	"github.com/oxhq/driftsim/internal/scanner"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/sim"
	"github.com/oxhq/driftsim/internal/symbols"
)

// Runner encapsulates the execution logic behind the CLI commands.
type Runner struct {
	Cfg *config.Config
	Log *logrus.Logger
	Out io.Writer
	Err io.Writer
}

// NewRunner builds a runner with its log level applied.
func NewRunner(cfg *config.Config) *Runner {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return &Runner{Cfg: cfg, Log: log, Out: os.Stdout, Err: os.Stderr}
}

// reportError writes the single-line diagnostic with its source range.
func (r *Runner) reportError(err error) {
	if se, ok := err.(*core.ScriptError); ok {
		fmt.Fprintln(r.Err, se.Error())
		return
	}
	fmt.Fprintf(r.Err, "ERROR: %v\n", err)
}

// RunFile executes a simulation file in batch mode for the given number of
// ticks, returning the process exit code.
func (r *Runner) RunFile(path string, ticks int64) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.Err, "ERROR: cannot read %s: %v\n", path, err)
		return 1
	}

	simulation := sim.New(r.Cfg, r.Log, r.Out)
	if r.Cfg.DBPath != "" {
		gdb, err := db.Connect(r.Cfg.DBPath, r.Log.IsLevelEnabled(logrus.DebugLevel))
		if err != nil {
			fmt.Fprintf(r.Err, "ERROR: %v\n", err)
			return 1
		}
		simulation.AttachDB(gdb)
	}

	if err := simulation.LoadScript(string(source)); err != nil {
		r.reportError(err)
		return 1
	}
	if err := simulation.Run(ticks); err != nil {
		r.reportError(err)
		return 1
	}
	return 0
}

// Check parses a source file without executing it; with dumpAST the tree
// is printed.
func (r *Runner) Check(path string, dumpAST bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(r.Err, "ERROR: cannot read %s: %v\n", path, err)
		return 1
	}
	toks, err := scanner.New(string(source), scanner.Config{
		LogTokens: r.Cfg.LogTokens,
		Log:       r.Out,
	}).Tokenize()
	if err != nil {
		r.reportError(err)
		return 1
	}
	file, err := parser.New(toks, parser.Config{}).ParseSimulationFile()
	if err != nil {
		r.reportError(err)
		return 1
	}
	if dumpAST {
		file.Dump(r.Out, 0)
	}
	fmt.Fprintf(r.Out, "%s: %d script block(s), ok\n", path, len(file.Children))
	return 0
}

// REPL reads interpreter-block input line by line, evaluating each line
// and echoing non-invisible results. Errors surface and the loop resets;
// the symbol table persists across lines.
func (r *Runner) REPL(in io.Reader) int {
	table := symbols.NewTable()
	registry := interp.StandardRegistry()

	scannerIn := bufio.NewScanner(in)
	fmt.Fprint(r.Out, "> ")
	for scannerIn.Scan() {
		line := scannerIn.Text()
		if line == "" {
			fmt.Fprint(r.Out, "> ")
			continue
		}
		r.evalLine(line, table, registry)
		fmt.Fprint(r.Out, "> ")
	}
	return 0
}

func (r *Runner) evalLine(line string, table *symbols.Table, registry *signature.Registry) {
	toks, err := scanner.New(line, scanner.Config{
		LogTokens: r.Cfg.LogTokens,
		Log:       r.Out,
	}).Tokenize()
	if err != nil {
		r.reportError(err)
		return
	}
	toks = scanner.AppendOptionalSemicolon(toks)
	root, err := parser.New(toks, parser.Config{LogAST: r.Cfg.LogAST, Log: r.Out}).ParseInterpreterBlock()
	if err != nil {
		r.reportError(err)
		return
	}
	in := interp.New(table, registry, r.Out, interp.Config{TraceEval: r.Cfg.LogEval, Log: r.Out})
	if _, err := in.EvaluateInterpreterBlock(root, true); err != nil {
		r.reportError(err)
	}
}
