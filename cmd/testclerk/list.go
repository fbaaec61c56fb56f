package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/config"
	"github.com/testclerk/testclerk/internal/harness"
)

func (a *app) listCmd() *cobra.Command {
	var (
		baseDir string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all available tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			wd, err := os.Getwd()
			if err != nil {
				return clierr.NewRuntime(err, "failed to get working directory")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			proj, err := loadProject(wd)
			if err != nil {
				return err
			}
			fw, err := a.frameworkFor(wd, cfg, proj)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("base-dir") {
				baseDir = defaultBaseDir(wd, proj)
			}
			collector := harness.NewCollector(fw)

			if asJSON {
				log.Debug().Str("dir", baseDir).Msg("generating JSON map of all tests")
				tree, err := collector.TestTree(ctx, []string{baseDir})
				if err != nil {
					return clierr.NewExecution(err, "failed to collect tests")
				}
				if err := writeJSON(a.stdout, tree.Map()); err != nil {
					return clierr.NewOutput(err, "failed to render test map")
				}
				return nil
			}

			log.Debug().Str("dir", baseDir).Msg("generating list of all tests")
			ids, err := collector.CollectAllTests(ctx, []string{baseDir})
			if err != nil {
				return clierr.NewExecution(err, "failed to collect tests")
			}
			for i, id := range ids {
				fmt.Fprintf(a.stdout, "%d. %s\n", i+1, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&baseDir, "base-dir", "b", "", "Base directory of tests (default: project base_dir, tests, or .)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the test list as a JSON map")

	return cmd
}

// defaultBaseDir is the project base_dir, else ./tests when it exists, else .
func defaultBaseDir(wd string, proj *config.ProjectConfig) string {
	if proj.BaseDir != "" {
		return proj.BaseDir
	}
	if info, err := os.Stat(filepath.Join(wd, "tests")); err == nil && info.IsDir() {
		return "tests"
	}
	return "."
}

// writeJSON renders v with sorted keys, two-space indent and no HTML escaping
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
