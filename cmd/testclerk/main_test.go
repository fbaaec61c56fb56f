package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testclerk/testclerk/internal/clierr"
	"github.com/testclerk/testclerk/internal/config"
	"github.com/testclerk/testclerk/internal/llm"
	"github.com/testclerk/testclerk/internal/testutil"
)

type fakeClient struct {
	answer string
	calls  int
	last   *llm.Request
}

func (f *fakeClient) Name() llm.Provider { return "fake" }

func (f *fakeClient) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.calls++
	f.last = req
	return &llm.Response{Content: f.answer, Provider: "fake"}, nil
}

type harnessApp struct {
	*app
	client *fakeClient
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp() *harnessApp {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	client := &fakeClient{answer: "# Report\n"}
	a := newApp(stdout, stderr)
	a.newClient = func(config.LLMConfig) (llm.Client, error) { return client, nil }
	return &harnessApp{app: a, client: client, stdout: stdout, stderr: stderr}
}

// workdir clears the environment and moves into a fresh directory
func workdir(t *testing.T, apiKey string) string {
	t.Helper()
	for _, v := range []string{
		config.EnvAPIKey, config.EnvProvider, config.EnvBaseURL, config.EnvModel,
		config.EnvTimeout, config.EnvOllamaURL, config.EnvFramework, config.EnvPython,
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	if apiKey != "" {
		t.Setenv(config.EnvAPIKey, apiKey)
	}

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeGoModule(t *testing.T, dir, tests string) {
	t.Helper()
	testutil.WriteFiles(t, dir, map[string]string{
		"go.mod":         "module example.com/sample\n\ngo 1.21\n",
		"sample_test.go": tests,
	})
}

const passingTests = `package sample

import "testing"

func TestAlpha(t *testing.T) {}

func TestBeta(t *testing.T) {}
`

const failingTests = `package sample

import "testing"

func TestAlpha(t *testing.T) { t.Fatal("boom") }
`

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, levelFor(0))
	assert.Equal(t, zerolog.InfoLevel, levelFor(1))
	assert.Equal(t, zerolog.DebugLevel, levelFor(2))
	assert.Equal(t, zerolog.DebugLevel, levelFor(5))
}

func TestRun_RejectsNonMarkdownOutput(t *testing.T) {
	workdir(t, "key")
	h := newTestApp()

	code := h.execute([]string{"run", "-o", "report.txt"})

	assert.Equal(t, int(clierr.Input), code)
	assert.Contains(t, h.stderr.String(), "Output file must be a Markdown file")
	assert.Contains(t, h.stderr.String(), "Rename the output file to report.md")
	assert.Zero(t, h.client.calls)
}

func TestRun_MissingAPIKey(t *testing.T) {
	workdir(t, "")
	h := newTestApp()

	code := h.execute([]string{"run"})

	assert.Equal(t, int(clierr.Environment), code)
	assert.Contains(t, h.stderr.String(), "Set TESTCLERK_API_KEY and try again")
}

func TestUnknownFlag(t *testing.T) {
	workdir(t, "key")
	h := newTestApp()

	code := h.execute([]string{"list", "--bogus"})
	assert.Equal(t, int(clierr.Input), code)
}

func TestUnknownFramework(t *testing.T) {
	workdir(t, "key")
	h := newTestApp()

	code := h.execute([]string{"--framework", "jest", "list"})
	assert.Equal(t, int(clierr.Input), code)
	assert.Contains(t, h.stderr.String(), "Choose one of: auto")
}

func TestSettingsPrecedence(t *testing.T) {
	proj := config.DefaultProjectConfig()
	proj.Framework = "pytest"
	proj.Python = "python3.12"
	proj.Exclude = []string{"legacy/**"}

	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})

	// env "auto" and no flag keep the project values
	set := a.settings(&config.Config{Framework: "auto"}, proj)
	assert.Equal(t, "pytest", set.Framework)
	assert.Equal(t, "python3.12", set.Python)
	assert.Equal(t, []string{"legacy/**"}, set.Exclude)

	set = a.settings(&config.Config{Framework: "go", Python: "/opt/py"}, proj)
	assert.Equal(t, "go", set.Framework)
	assert.Equal(t, "/opt/py", set.Python)

	a.framework = "pytest"
	set = a.settings(&config.Config{Framework: "go"}, proj)
	assert.Equal(t, "pytest", set.Framework)

	a.framework = "auto"
	set = a.settings(&config.Config{Framework: "auto"}, config.DefaultProjectConfig())
	assert.Equal(t, "auto", set.Framework)

	// the project config itself is left untouched
	assert.Equal(t, "pytest", proj.Framework)
}

func TestFrameworkFor_ProjectFileSelectsDriver(t *testing.T) {
	dir := workdir(t, "")
	writeGoModule(t, dir, passingTests)
	testutil.WriteFiles(t, dir, map[string]string{".testclerk.yaml": "framework: pytest\ncollect_mode: static\n"})
	h := newTestApp()

	proj, err := loadProject(dir)
	require.NoError(t, err)
	fw, err := h.frameworkFor(dir, &config.Config{Framework: "auto"}, proj)
	require.NoError(t, err)
	assert.Equal(t, "pytest", string(fw.Name()))

	h.framework = "go"
	fw, err = h.frameworkFor(dir, &config.Config{Framework: "auto"}, proj)
	require.NoError(t, err)
	assert.Equal(t, "go", string(fw.Name()))
}

func TestList_Plain(t *testing.T) {
	dir := workdir(t, "")
	writeGoModule(t, dir, passingTests)
	h := newTestApp()

	code := h.execute([]string{"list"})

	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "1. sample_test.go::TestAlpha\n2. sample_test.go::TestBeta\n", h.stdout.String())
}

func TestList_JSON(t *testing.T) {
	dir := workdir(t, "")
	writeGoModule(t, dir, passingTests)
	h := newTestApp()

	code := h.execute([]string{"list", "--json"})
	require.Equal(t, 0, code, h.stderr.String())

	var got map[string]map[string][]string
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, map[string]map[string][]string{
		"sample_test.go": {"null": {"TestAlpha", "TestBeta"}},
	}, got)
}

func TestList_BaseDirFlag(t *testing.T) {
	dir := workdir(t, "")
	writeGoModule(t, dir, passingTests)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "other"), 0755))
	h := newTestApp()

	code := h.execute([]string{"list", "-b", "other"})

	require.Equal(t, 0, code, h.stderr.String())
	assert.Empty(t, h.stdout.String())
}

func TestDefaultBaseDir(t *testing.T) {
	dir := t.TempDir()
	proj := config.DefaultProjectConfig()

	assert.Equal(t, ".", defaultBaseDir(dir, proj))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "tests"), 0755))
	assert.Equal(t, "tests", defaultBaseDir(dir, proj))

	proj.BaseDir = "checks"
	assert.Equal(t, "checks", defaultBaseDir(dir, proj))
}

func TestRun_WritesReport(t *testing.T) {
	testutil.RequireBinary(t, "go")
	dir := workdir(t, "key")
	writeGoModule(t, dir, passingTests)
	h := newTestApp()

	code := h.execute([]string{"run", "-o", "summary.md"})
	require.Equal(t, 0, code, h.stderr.String())

	report, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Report\n", string(report))

	assert.Equal(t, 1, h.client.calls)
	assert.Equal(t, llm.SystemPromptReportScanner, h.client.last.System)
	assert.Contains(t, h.stdout.String(), "TestAlpha")
	assert.Contains(t, h.stdout.String(), "Test summary generated!")
}

func TestRun_FailingTestsSkipReport(t *testing.T) {
	testutil.RequireBinary(t, "go")
	dir := workdir(t, "key")
	writeGoModule(t, dir, failingTests)
	h := newTestApp()

	code := h.execute([]string{"run", "-q"})

	assert.Equal(t, int(clierr.Execution), code)
	assert.Contains(t, h.stderr.String(), "test run failed with exit code 1")
	assert.Contains(t, h.stderr.String(), "Please check the output for more information")
	assert.Zero(t, h.client.calls)
	assert.NoFileExists(t, filepath.Join(dir, "report.md"))
}

func TestCompare_WritesRecommendations(t *testing.T) {
	dir := workdir(t, "key")

	r := testutil.InitRepo(t, dir)
	base := r.Commit(t, map[string]string{"calc.py": "def add(a, b):\n    return a + b\n"}, "initial").String()
	r.Commit(t, map[string]string{"calc.py": "def add(a, b):\n    return a - b\n"}, "change")

	h := newTestApp()
	h.client.answer = "## Summary\nAdd a test for add."

	code := h.execute([]string{"compare", "-r", base, "--no-fetch", "-o", "recs.md"})
	require.Equal(t, 0, code, h.stderr.String())

	assert.Equal(t, llm.SystemPromptRepoAnalyzer, h.client.last.System)
	require.Len(t, h.client.last.Messages, 1)
	assert.Contains(t, h.client.last.Messages[0].Content, "calc.py")

	assert.Contains(t, h.stdout.String(), "Recommendations for tests: "+dir)
	assert.Contains(t, h.stdout.String(), "Add a test for add.")

	report, err := os.ReadFile(filepath.Join(dir, "recs.md"))
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nAdd a test for add.", string(report))
}

func TestCompare_MissingDirectory(t *testing.T) {
	dir := workdir(t, "key")
	h := newTestApp()

	code := h.execute([]string{"compare", "-d", filepath.Join(dir, "missing")})

	assert.Equal(t, int(clierr.Input), code)
	assert.Contains(t, h.stderr.String(), "does not exist")
}

func TestCompare_NotARepository(t *testing.T) {
	workdir(t, "key")
	h := newTestApp()

	code := h.execute([]string{"compare", "--no-fetch", "-q"})

	assert.Equal(t, int(clierr.Runtime), code)
	assert.Contains(t, h.stderr.String(), "failed to get git diff")
}

func TestPrintError(t *testing.T) {
	h := newTestApp()

	h.printError(clierr.NewOutput(nil, "disk full").WithHelp("Free some space"))
	assert.Equal(t, "Error: disk full\nFree some space\n", h.stderr.String())

	h.stderr.Reset()
	h.printError(assert.AnError)
	assert.Contains(t, h.stderr.String(), clierr.DefaultHelp)
}
