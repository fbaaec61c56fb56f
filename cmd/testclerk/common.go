package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/config"
	"github.com/testclerk/testclerk/internal/framework"
	"github.com/testclerk/testclerk/internal/framework/gotest"
	"github.com/testclerk/testclerk/internal/framework/pytest"
	"github.com/testclerk/testclerk/internal/llm"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, clierr.NewEnvironment(err, "failed to load configuration")
	}
	return cfg, nil
}

func loadProject(dir string) (*config.ProjectConfig, error) {
	proj, err := config.LoadProjectConfig(dir)
	if err != nil {
		return nil, clierr.NewInput(err, "invalid project configuration")
	}
	return proj, nil
}

// llmClient validates the LLM settings and builds the client
func (a *app) llmClient(cfg *config.Config) (llm.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, clierr.NewEnvironment(err, "invalid environment").
			WithHelp(fmt.Sprintf("Set %s and try again", config.EnvAPIKey))
	}
	client, err := a.newClient(cfg.LLM)
	if err != nil {
		return nil, clierr.NewEnvironment(err, "failed to create LLM client")
	}
	return client, nil
}

// settings layers the environment and then the command line over the
// project file. "auto" never overrides a concrete framework.
func (a *app) settings(cfg *config.Config, proj *config.ProjectConfig) *config.ProjectConfig {
	merged := *proj
	merged.Merge(&config.ProjectConfig{Framework: concrete(cfg.Framework), Python: cfg.Python})
	merged.Merge(&config.ProjectConfig{Framework: concrete(a.framework)})
	return &merged
}

func concrete(name string) string {
	if framework.Name(name) == framework.NameAuto {
		return ""
	}
	return name
}

// frameworkFor picks the driver from the merged settings; auto detects from dir.
func (a *app) frameworkFor(dir string, cfg *config.Config, proj *config.ProjectConfig) (framework.Framework, error) {
	set := a.settings(cfg, proj)
	name := framework.Name(set.Framework)

	pyOpts := []pytest.Option{
		pytest.WithCollectMode(pytest.CollectMode(set.CollectMode)),
		pytest.WithExclude(set.Exclude),
	}
	if set.Python != "" {
		pyOpts = append(pyOpts, pytest.WithPython(set.Python))
	}

	reg := framework.NewRegistry(
		pytest.New(pyOpts...),
		gotest.New(gotest.WithExclude(set.Exclude)),
	)

	fw, err := reg.Resolve(name, dir)
	if err != nil {
		names := make([]string, 0, len(reg.List())+1)
		names = append(names, string(framework.NameAuto))
		for _, n := range reg.List() {
			names = append(names, string(n))
		}
		return nil, clierr.NewInput(err, "unsupported framework").
			WithHelp("Choose one of: " + strings.Join(names, ", "))
	}
	return fw, nil
}

// markdownOutput resolves the report path and checks its suffix
func markdownOutput(path string) (string, error) {
	if ext := filepath.Ext(path); ext != ".md" {
		stem := strings.TrimSuffix(filepath.Base(path), ext)
		return "", clierr.NewInput(nil, "Output file must be a Markdown file, got %q", ext).
			WithHelp(fmt.Sprintf("Rename the output file to %s.md", stem))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", clierr.NewInput(err, "invalid output path %s", path)
	}
	return abs, nil
}

func writeReport(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return clierr.NewOutput(err, "failed to write report")
	}
	return nil
}

// ask runs fn while a spinner turns on stderr, unless quiet
func (a *app) ask(ctx context.Context, quiet bool, desc string, fn func(ctx context.Context) (string, error)) (string, error) {
	if quiet {
		return fn(ctx)
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(a.stderr),
		progressbar.OptionSetDescription(color.CyanString(desc)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	out, err := fn(ctx)
	close(done)
	wg.Wait()
	_ = bar.Finish()

	return out, err
}

func (a *app) banner(format string, args ...any) {
	color.New(color.FgGreen, color.Bold).Fprintf(a.stdout, format+"\n", args...)
}
