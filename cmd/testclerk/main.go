package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/config"
	"github.com/testclerk/testclerk/internal/llm"
)

var version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	os.Exit(newApp(os.Stdout, os.Stderr).execute(os.Args[1:]))
}

// app carries the state shared by all commands
type app struct {
	stdout io.Writer
	stderr io.Writer

	verbosity int
	framework string

	newClient func(cfg config.LLMConfig) (llm.Client, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		newClient: llm.NewClient,
	}
}

// execute runs the command line and returns the process exit status
func (a *app) execute(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.Execute(); err != nil {
		a.printError(err)
		return clierr.ExitCode(err)
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "testclerk",
		Short: "testclerk - test automation assistant",
		Long: `testclerk runs and lists your tests, summarizes test runs with an LLM and
recommends tests for the changes between your working tree and a reference branch.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(levelFor(a.verbosity))
		},
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-vv for debug)")
	rootCmd.PersistentFlags().StringVar(&a.framework, "framework", "", "Test framework (auto, pytest, go)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierr.NewInput(err, "invalid arguments")
	})

	rootCmd.AddCommand(a.runCmd())
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.compareCmd())

	return rootCmd
}

func levelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

func (a *app) printError(err error) {
	red := color.New(color.FgRed, color.Bold)

	help := clierr.DefaultHelp
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		help = cliErr.HelpText()
	}

	red.Fprintf(a.stderr, "Error: %s\n", err)
	fmt.Fprintln(a.stderr, help)
}
