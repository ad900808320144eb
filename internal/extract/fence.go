package extract

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fenceRe = regexp.MustCompile("(?is)```(?:json)?[ \\t]*\\n?(.*?)\\n?```")

	// Shallow brace matcher: finds standalone object candidates up to one
	// nesting level, each candidate is then validated as real JSON.
	braceRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// StripFence returns the inner text of the first markdown code fence in
// text, optionally tagged "json" (case-insensitive). If no fence is found
// the trimmed text is returned unchanged.
func StripFence(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// embeddedJSON locates a JSON document inside text, trying in order: the
// text itself, the first fenced block, and a brace-balanced scan for the
// first standalone object. The boolean reports whether anything parsed.
func embeddedJSON(text string) (string, bool) {
	if gjson.Valid(strings.TrimSpace(text)) {
		return text, true
	}

	if inner := StripFence(text); inner != strings.TrimSpace(text) && gjson.Valid(inner) {
		return inner, true
	}

	for _, candidate := range braceRe.FindAllString(text, -1) {
		if gjson.Valid(candidate) {
			return candidate, true
		}
	}

	return "", false
}

// parseDocument parses content as JSON, falling back to the first fenced
// block when the direct parse fails.
func parseDocument(content string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(content)
	if gjson.Valid(trimmed) {
		return gjson.Parse(trimmed), true
	}

	inner := StripFence(content)
	if inner != trimmed && gjson.Valid(inner) {
		return gjson.Parse(inner), true
	}

	return gjson.Result{}, false
}
