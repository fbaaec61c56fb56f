package llm

import (
	"io"
	"regexp"
)

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 1024

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]+`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`"x-api-key"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),
}

// sanitizeErrorBody redacts credentials a provider may echo back in an error.
func sanitizeErrorBody(body string) string {
	for _, re := range secretPatterns {
		body = re.ReplaceAllString(body, "[REDACTED]")
	}
	return body
}

// readErrorBody reads at most maxErrorBody bytes and redacts them.
func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return sanitizeErrorBody(string(b))
}
