package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single Ask call
const DefaultTimeout = 60 * time.Second

// Assistant sends one-shot requests under a fixed setup prompt.
type Assistant struct {
	client      Client
	setupPrompt string
	timeout     time.Duration
}

// NewAssistant creates an assistant. A zero timeout selects DefaultTimeout.
func NewAssistant(client Client, setupPrompt string, timeout time.Duration) (*Assistant, error) {
	if strings.TrimSpace(setupPrompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Assistant{client: client, setupPrompt: setupPrompt, timeout: timeout}, nil
}

// SetupPrompt returns the system prompt sent with every request
func (a *Assistant) SetupPrompt() string {
	return a.setupPrompt
}

// Ask sends message as the single user turn and returns the model's text.
func (a *Assistant) Ask(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.Complete(ctx, &Request{
		System:   a.setupPrompt,
		Messages: []Message{{Role: "user", Content: message}},
	})
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("completion received")

	if resp.Content == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, resp.Refusal)
	}
	return resp.Content, nil
}

// ReportScanner turns test run output into a Markdown report
type ReportScanner struct {
	*Assistant
}

// NewReportScanner creates a report scanner on top of client
func NewReportScanner(client Client, timeout time.Duration) *ReportScanner {
	// the prompt is a non-empty constant, so NewAssistant cannot fail
	a, _ := NewAssistant(client, SystemPromptReportScanner, timeout)
	return &ReportScanner{Assistant: a}
}

// AnalyzeTests asks for a summary report of the given test output
func (s *ReportScanner) AnalyzeTests(ctx context.Context, testOutput string) (string, error) {
	return s.Ask(ctx, ReportRequestMessage(testOutput))
}

// RepoAnalyzer recommends tests for a set of repository changes
type RepoAnalyzer struct {
	*Assistant
}

// NewRepoAnalyzer creates a repo analyzer on top of client
func NewRepoAnalyzer(client Client, timeout time.Duration) *RepoAnalyzer {
	// the prompt is a non-empty constant, so NewAssistant cannot fail
	a, _ := NewAssistant(client, SystemPromptRepoAnalyzer, timeout)
	return &RepoAnalyzer{Assistant: a}
}

// CompareDiff asks for test recommendations for the given diff
func (r *RepoAnalyzer) CompareDiff(ctx context.Context, diff string) (string, error) {
	return r.Ask(ctx, DiffRequestMessage(diff))
}
