package orchestrator

import (
	"regexp"
	"strings"
)

var (
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.*?)\*`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headerPattern     = regexp.MustCompile(`(?m)^#+\s*(.*)$`)
	codeBlockPattern  = regexp.MustCompile("```[^`]*```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	blankRunPattern   = regexp.MustCompile(`\n\s*\n`)
)

// StripMarkdown flattens generated markdown into plain text suitable for a
// chat reply.
func StripMarkdown(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = headerPattern.ReplaceAllString(text, "$1")
	text = codeBlockPattern.ReplaceAllString(text, "")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
