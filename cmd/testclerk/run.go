package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/harness"
	"github.com/testclerk/testclerk/internal/llm"
)

func (a *app) runCmd() *cobra.Command {
	var (
		output string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "run [TEST_IDS...]",
		Short: "Run tests and generate a summary report",
		Long: `Run the selected tests (all tests when none are given) and ask the LLM for a
Markdown summary of the run. The report is only generated when every test passes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			out, err := markdownOutput(output)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := a.llmClient(cfg)
			if err != nil {
				return err
			}

			wd, err := os.Getwd()
			if err != nil {
				return clierr.NewRuntime(err, "failed to get working directory")
			}
			proj, err := loadProject(wd)
			if err != nil {
				return err
			}
			fw, err := a.frameworkFor(wd, cfg, proj)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				log.Info().Msg("no test ids provided, running all tests")
			}

			res, runErr := harness.NewExecutor(fw).Run(ctx, args, !quiet)
			if !quiet {
				fmt.Fprintln(a.stdout, res.Stdout)
				fmt.Fprintln(a.stdout, res.Stderr)
			}
			if runErr != nil {
				return clierr.NewExecution(runErr, "failed to run tests")
			}
			if !res.Passed() {
				return clierr.NewExecution(nil, "test run failed with exit code %d: %s",
					res.ExitCode, strings.TrimSpace(res.Stderr)).
					WithHelp("Please check the output for more information")
			}

			log.Debug().Msg("test execution complete, proceeding to results analysis")

			scanner := llm.NewReportScanner(client, cfg.LLM.Timeout)
			report, err := a.ask(ctx, quiet, "Generating report", func(ctx context.Context) (string, error) {
				return scanner.AnalyzeTests(ctx, res.Stdout)
			})
			if err != nil {
				return clierr.NewGeneration(err, "failed to generate report").
					WithHelp("Please try again re-running the command")
			}

			if err := writeReport(out, report); err != nil {
				return err
			}

			a.banner("\n[!] Test summary generated! Report file: %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "report.md", "Markdown file the report is written to")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress test execution shell output")

	return cmd
}
