// Command tscheck is the CLI entry point for the semantic type engine:
// it wires the Checker to a severity-colored diagnostic renderer,
// auto-detecting color support (isatty on stdout, NO_COLOR honored)
// rather than emitting always-on ANSI.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sunholo/tscore/internal/checker"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/options"
)

// Version info, set by ldflags during build.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen, color.Bold)
	pathColor    = color.New(color.FgCyan)
)

func main() {
	// NO_COLOR convention (https://no-color.org/): honored on top of
	// fatih/color's own isatty-on-stdout check, so output colors only
	// when a real terminal is attached, not when piped or redirected.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	out := colorable.NewColorableStdout()

	root := newRootCmd(out)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tscheck",
		Short:         "Semantic type checker for a TypeScript-shaped surface language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML compiler-options file (defaults to strict: false)")

	root.AddCommand(newCheckCmd(&configPath), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print tscheck's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tscheck %s (%s)\n", Version, Commit)
			return nil
		},
	}
}

func newCheckCmd(configPath *string) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "check [program]",
		Short: "Type-check one of tscheck's built-in worked examples",
		Long: strings.TrimSpace(`
check runs the checker's query/relation/inference stack end to end
against a named built-in program and prints every diagnostic it
produces. There is no parser in this build, so "program" names one of
the fixed example programs rather than a path on disk; pass --list to
see the available names.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if list {
				for _, name := range demoNames {
					fmt.Fprintln(w, name)
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one program name, got %d (try --list)", len(args))
			}
			return runCheck(w, *configPath, args[0])
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the available built-in program names")
	return cmd
}

func runCheck(w io.Writer, configPath, name string) error {
	file, binderState, ok := demoFile(name)
	if !ok {
		return fmt.Errorf("unknown program %q (try --list)", name)
	}

	opts := options.Default()
	if configPath != "" {
		loaded, err := options.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", configPath, err)
		}
		opts = loaded
	}

	c := checker.New(binderState, opts)
	c.CheckFile(file)

	diags := c.Diagnostics()
	sort.Slice(diags, func(i, j int) bool { return diags[i].Span.Start.Line < diags[j].Span.Start.Line })

	for _, d := range diags {
		printDiagnostic(w, d)
	}

	if len(diags) == 0 {
		fmt.Fprintln(w, successColor.Sprintf("%s: no errors", name))
		return nil
	}
	return fmt.Errorf("%d diagnostic(s)", len(diags))
}

func printDiagnostic(w io.Writer, d diagnostic.Diagnostic) {
	sev := errorColor.Sprint("error")
	if d.Severity == diagnostic.SeverityWarning {
		sev = warnColor.Sprint("warning")
	}
	fmt.Fprintf(w, "%s %s %s: %s\n", pathColor.Sprint(d.Span.Start.String()), sev, string(d.Code), d.Message)
}
