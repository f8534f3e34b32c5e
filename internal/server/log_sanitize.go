package server

import (
	"regexp"
)

// Connection strings in workflow documents end up in debug logs, so the
// ODBC forms are covered alongside the usual key=value secrets.
var credentialPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{regex: regexp.MustCompile(`(?i)\b(password|pwd)=[^;\s"']+`), replacement: "$1=[redacted]"},
	{regex: regexp.MustCompile(`(?i)\b(uid|user id)=[^;\s"']+`), replacement: "$1=[redacted]"},
	{regex: regexp.MustCompile(`(?i)\bapi_key=\S+`), replacement: "api_key=[redacted]"},
	{regex: regexp.MustCompile(`(?i)\bsecret=\S+`), replacement: "secret=[redacted]"},
	{regex: regexp.MustCompile(`(?i)\b(refresh_)?token=\S+`), replacement: "${1}token=[redacted]"},
	{regex: regexp.MustCompile(`(?i)authorization:\s*bearer\s+[a-z0-9\-._~+/=]+`), replacement: "authorization: Bearer [redacted]"},
	{regex: regexp.MustCompile(`(?i)-----BEGIN( RSA)? PRIVATE KEY-----[\s\S]+?-----END( RSA)? PRIVATE KEY-----`), replacement: "[redacted private key]"},
	{regex: regexp.MustCompile(`(?i)(https?|jdbc:[a-z]+)://[^:@\s/]+:[^@\s]+@`), replacement: "$1://[redacted]:[redacted]@"},
	{regex: regexp.MustCompile(`(?i)(aws_|gcp_|azure_)?(access|secret|session)_key[^\s]*=\S+`), replacement: "$1$2_key=[redacted]"},
	{regex: regexp.MustCompile(`(?i)(password|secret|token)\s*"[^"]+"`), replacement: "$1\"[redacted]\""},
	{regex: regexp.MustCompile(`(?i)(password|secret|token)\s*'[^']+'`), replacement: "$1'[redacted]'"},
}

// SanitizeLogLines redacts credentials from log lines before they leave the
// process.
func SanitizeLogLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		for _, pattern := range credentialPatterns {
			l = pattern.regex.ReplaceAllString(l, pattern.replacement)
		}
		out[i] = l
	}
	return out
}
