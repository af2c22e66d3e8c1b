// Package cmd implements the minijavac command-line driver: for each
// positional input file it runs the full translate/canonicalize/trace/
// munge/allocate/emit pipeline and writes <basename>.s into the current
// directory (or the -o directory), matching
// spec.md §6 ("for each argument, compile independently; subsequent
// arguments still attempt compilation after an earlier failure").
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"minijavac/internal/cerr"
	"minijavac/internal/frontend"
	"minijavac/internal/logging"
	"minijavac/internal/pipeline"
)

var (
	verbose    bool
	outDir     string
	stopAfterS bool
)

// Execute runs the root command against os.Args.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set by runRoot so Execute can report a non-zero status
// without cobra itself treating per-file compile failures as usage errors.
var exitCode int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "minijavac <input.java>...",
		Short: "Compile MiniJava source files to 32-bit x86 assembly",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRoot,
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace each compilation stage")
	root.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory to write .s files into (default: current directory)")
	root.Flags().BoolVarP(&stopAfterS, "S", "S", false, "stop after emitting assembly (currently the only stage; reserved for future stages)")
	return root
}

func runRoot(cmd *cobra.Command, args []string) error {
	logging.SetVerbose(verbose)

	failures := 0
	for _, input := range args {
		if err := compileFile(input); err != nil {
			failures++
			reportError(input, err)
		}
	}
	if failures > 0 {
		exitCode = 1
	}
	return nil
}

func compileFile(input string) error {
	start := time.Now()
	log := logging.Stage(input, "read")

	source, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrapf(err, "reading %s", input)
	}

	log.Debug("parsing")
	prg, err := frontend.Unimplemented(string(source))
	if err != nil {
		return err
	}

	outPath := outputPath(input)
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer out.Close()

	logging.Stage(input, "compile").Debug("running pipeline")
	if err := pipeline.Compile(prg, out); err != nil {
		return err
	}

	logging.Stage(input, "done").WithField("elapsed", time.Since(start)).Debug("wrote " + outPath)
	return nil
}

func outputPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".s"
	if outDir == "" {
		return base
	}
	return filepath.Join(outDir, base)
}

func reportError(input string, err error) {
	fmt.Fprintf(os.Stderr, "%s: ", input)
	if ce, ok := err.(*cerr.CompileError); ok {
		ce.Report(os.Stderr)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
