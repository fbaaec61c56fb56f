package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/config"
	"github.com/testclerk/testclerk/internal/llm"
	"github.com/testclerk/testclerk/internal/vcs"
)

func (a *app) compareCmd() *cobra.Command {
	var (
		directory string
		refBranch string
		noFetch   bool
		quiet     bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Recommend tests for the changes against a reference branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			out, err := markdownOutput(output)
			if err != nil {
				return err
			}

			dir, err := existingDir(directory)
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

			proj, err := loadProject(dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ref-branch") {
				proj.Merge(&config.ProjectConfig{RefBranch: refBranch})
			}
			refBranch = proj.RefBranch

			diff, err := vcs.CompareDiff(ctx, dir, refBranch, vcs.Options{Fetch: !noFetch})
			if err != nil {
				return clierr.NewRuntime(err, "failed to get git diff")
			}

			log.Info().Str("ref", refBranch).Int("bytes", len(diff)).Msg("forwarding git diff to LLM")

			analyzer := llm.NewRepoAnalyzer(client, cfg.LLM.Timeout)
			assessment, err := a.ask(ctx, quiet, "Analyzing changes", func(ctx context.Context) (string, error) {
				return analyzer.CompareDiff(ctx, diff)
			})
			if err != nil {
				return clierr.NewGeneration(err, "failed to analyze changes").
					WithHelp("Please try again re-running the command")
			}

			a.banner("[!] Recommendations for tests: %s", dir)
			if !quiet {
				fmt.Fprintln(a.stdout, assessment)
			}

			if err := writeReport(out, assessment); err != nil {
				return err
			}
			log.Info().Str("path", out).Msg("diff report generated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", ".", "Repository directory to analyze")
	cmd.Flags().StringVarP(&refBranch, "ref-branch", "r", config.DefaultRefBranch, "Reference to compare against")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Do not fetch origin before comparing")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the recommendations on the console")
	cmd.Flags().StringVarP(&output, "output", "o", "report.md", "Markdown file the report is written to")

	return cmd
}

func existingDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", clierr.NewInput(err, "invalid directory %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", clierr.NewInput(err, "directory %s does not exist", path)
	}
	if !info.IsDir() {
		return "", clierr.NewInput(nil, "%s is not a directory", path)
	}
	return abs, nil
}
