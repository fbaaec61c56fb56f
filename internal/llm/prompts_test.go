package llm

import (
	"strings"
	"testing"
)

func TestReportRequestMessage(t *testing.T) {
	got := ReportRequestMessage("1 failed, 2 passed")
	want := "Generate a report for the following test output:\n\n1 failed, 2 passed"
	if got != want {
		t.Errorf("ReportRequestMessage() = %q, want %q", got, want)
	}
}

func TestDiffRequestMessage(t *testing.T) {
	got := DiffRequestMessage("diff --git a/x b/x")
	want := "Prepare an analysis and report for this diff:\n\ndiff --git a/x b/x"
	if got != want {
		t.Errorf("DiffRequestMessage() = %q, want %q", got, want)
	}
}

func TestSystemPrompts(t *testing.T) {
	if !strings.Contains(SystemPromptReportScanner, "Senior QA Engineer") {
		t.Error("report prompt should set the QA engineer role")
	}
	if !strings.Contains(SystemPromptReportScanner, "Markdown") {
		t.Error("report prompt should ask for Markdown")
	}

	for _, section := range []string{"Summary", "Areas Requiring Tests", "Suggested Tests", "Risks"} {
		if !strings.Contains(SystemPromptRepoAnalyzer, section) {
			t.Errorf("analyzer prompt missing section %q", section)
		}
	}
	if !strings.Contains(SystemPromptRepoAnalyzer, "`git diff`") {
		t.Error("analyzer prompt should mention git diff")
	}
}
