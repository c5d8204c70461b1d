package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var newlinePattern = regexp.MustCompile(`[\r\n]+`)

// String trims s and escapes HTML so stored names render safely in dashboards
func String(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

// OptionalString sanitizes s, mapping nil and blank input to nil
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	clean := String(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// LogString collapses line breaks so user input cannot forge log lines
func LogString(s string) string {
	return newlinePattern.ReplaceAllString(s, " ")
}
