package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gauntlet-qa/gauntlet/internal/common"
	"github.com/tidwall/gjson"
)

// FailureMode selects how an Extractor degrades when content cannot be
// parsed or a path segment cannot be resolved.
type FailureMode string

const (
	// FailureIgnore returns the original content unchanged. This is the
	// default. Note the fallback is the entire input, not a partially
	// resolved value: two different invalid paths against the same content
	// collapse to the same result.
	FailureIgnore FailureMode = "ignore"
	// FailureError surfaces the failure as an error.
	FailureError FailureMode = "error"
	// FailureEmpty returns an empty string.
	FailureEmpty FailureMode = "empty"
)

// ParseFailureMode validates a config string as a FailureMode.
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case FailureIgnore, FailureError, FailureEmpty:
		return FailureMode(s), nil
	case "":
		return FailureIgnore, nil
	default:
		return "", fmt.Errorf("%w: unknown failure mode %q", common.ErrInvalidConfig, s)
	}
}

// Extractor resolves extraction paths against JSON or JSON-embedding text.
// Its configuration is immutable after construction, so a single instance
// is safe to share across concurrent callers.
type Extractor struct {
	logger      *slog.Logger
	failureMode FailureMode
	logFailures bool
}

// New creates an Extractor with the given failure mode. An empty mode
// defaults to FailureIgnore.
func New(mode FailureMode, logger *slog.Logger) *Extractor {
	if mode == "" {
		mode = FailureIgnore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		failureMode: mode,
		logFailures: true,
		logger:      logger,
	}
}

// Extract resolves path against content and returns the addressed value as
// a string. An empty path or "$" returns content unchanged without any JSON
// parsing. Objects and arrays are re-serialized compactly with source key
// order preserved; scalars use their JSON literal forms ("true", "null",
// numbers as written). Failures degrade per the extractor's failure mode.
func (e *Extractor) Extract(content, path string) (string, error) {
	if path == "" || path == "$" {
		return content, nil
	}

	if strings.Contains(path, ".$") {
		return e.extractNested(content, path)
	}

	return e.extractSingle(content, path)
}

// extractSingle resolves a path with no nested re-extraction markers.
func (e *Extractor) extractSingle(content, path string) (string, error) {
	if path == "" || path == "$" {
		return content, nil
	}

	doc, ok := parseDocument(content)
	if !ok {
		return e.fail(content, fmt.Errorf("%w: content is not JSON and has no fenced JSON block", common.ErrExtraction))
	}

	value, err := walk(doc, path)
	if err != nil {
		return e.fail(content, fmt.Errorf("%w: path %q: %v", common.ErrExtraction, path, err))
	}

	return serialize(value), nil
}

// extractNested handles paths containing the .$ marker. Each iteration
// consumes everything up to the first marker, re-parses the intermediate
// result as a JSON document, and continues with the remainder. The
// remaining path strictly shrinks, so the loop terminates for any input.
func (e *Extractor) extractNested(content, path string) (string, error) {
	current := content
	remaining := path

	for {
		idx := strings.Index(remaining, ".$")
		if idx == -1 {
			return e.extractSingle(current, remaining)
		}

		prefix := remaining[:idx]
		rest := remaining[idx+2:]

		intermediate := current
		if prefix != "" && prefix != "$" {
			var err error
			intermediate, err = e.extractSingle(current, prefix)
			if err != nil {
				return "", err
			}
		}

		embedded, ok := embeddedJSON(intermediate)
		if rest == "" || rest == "$" {
			if !ok {
				return e.fail(intermediate, fmt.Errorf("%w: no JSON document found in extracted text", common.ErrExtraction))
			}
			return embedded, nil
		}

		if !ok {
			// Let the next stage fail against the unparseable text so the
			// failure mode applies to the intermediate value.
			embedded = intermediate
		}

		current = embedded
		remaining = "$" + rest
	}
}

// Validate reports whether path is syntactically well formed: non-empty,
// rooted at $, no empty segments (..), "$." prefix when longer than one
// character, and balanced brackets. It does not interpret nested .$
// markers beyond their surface syntax.
func (e *Extractor) Validate(path string) bool {
	return ValidPath(path)
}

// ValidPath is the package-level form of Extractor.Validate.
func ValidPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "$") {
		return false
	}
	if strings.Contains(path, "..") {
		return false
	}
	if path == "$" {
		return true
	}
	if path[1] != '.' {
		return false
	}

	depth := 0
	for _, r := range path {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// fail applies the extractor's failure mode to the content being extracted
// from, logging the condition either way.
func (e *Extractor) fail(content string, err error) (string, error) {
	if e.logFailures {
		e.logger.Warn("extraction failed",
			"failure_mode", string(e.failureMode),
			"error", err)
	}

	switch e.failureMode {
	case FailureError:
		return "", err
	case FailureEmpty:
		return "", nil
	default:
		return content, nil
	}
}

// walk resolves the tokenized path against a parsed document. Any failure
// is returned as an error for the caller's failure-mode handling.
func walk(doc gjson.Result, path string) (gjson.Result, error) {
	trimmed := strings.TrimPrefix(path, "$")
	trimmed = strings.TrimPrefix(trimmed, ".")

	current := doc
	for _, token := range splitPath(trimmed) {
		if strings.HasSuffix(token, "]") {
			value, done, err := resolveBracket(current, token)
			if err != nil {
				return gjson.Result{}, err
			}
			if done {
				// [*] yields the whole array and ends the walk.
				return value, nil
			}
			current = value
			continue
		}

		child, err := objectChild(current, token)
		if err != nil {
			return gjson.Result{}, err
		}
		current = child
	}

	return current, nil
}

// resolveBracket handles a "field[idx]" or "[idx]" token. The done flag is
// set for the [*] form, which returns the array verbatim.
func resolveBracket(current gjson.Result, token string) (gjson.Result, bool, error) {
	open := strings.Index(token, "[")
	if open == -1 {
		return gjson.Result{}, false, fmt.Errorf("malformed bracket token %q", token)
	}

	field := token[:open]
	idxPart := strings.TrimSuffix(token[open+1:], "]")

	if field != "" {
		child, err := objectChild(current, field)
		if err != nil {
			return gjson.Result{}, false, err
		}
		current = child
	}

	if idxPart == "*" {
		if !current.IsArray() {
			return gjson.Result{}, false, fmt.Errorf("[*] applied to non-array value")
		}
		return current, true, nil
	}

	idx, err := strconv.Atoi(idxPart)
	if err != nil {
		return gjson.Result{}, false, fmt.Errorf("non-integer array index %q", idxPart)
	}
	if !current.IsArray() {
		return gjson.Result{}, false, fmt.Errorf("index [%d] applied to non-array value", idx)
	}

	elems := current.Array()
	if idx < 0 || idx >= len(elems) {
		return gjson.Result{}, false, fmt.Errorf("index %d out of range (array length %d)", idx, len(elems))
	}

	return elems[idx], false, nil
}

// objectChild looks up key in an object by exact match. Iterating keys
// directly avoids gjson path-escaping concerns for keys containing dots or
// wildcards.
func objectChild(current gjson.Result, key string) (gjson.Result, error) {
	if !current.IsObject() {
		return gjson.Result{}, fmt.Errorf("field %q accessed on non-object value", key)
	}

	var child gjson.Result
	found := false
	current.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			child = v
			found = true
			return false
		}
		return true
	})

	if !found {
		return gjson.Result{}, fmt.Errorf("field %q not found", key)
	}
	return child, nil
}

// splitPath tokenizes on dots outside brackets, with each bracket group as
// its own token: "items[0].name" becomes ["items", "[0]", "name"]. Chained
// indexes like "matrix[0][1]" therefore work without special casing.
func splitPath(path string) []string {
	var tokens []string
	var current strings.Builder
	inBracket := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range path {
		switch {
		case r == '[':
			flush()
			inBracket = true
			current.WriteRune(r)
		case r == ']':
			current.WriteRune(r)
			flush()
			inBracket = false
		case r == '.' && !inBracket:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// serialize renders a resolved value: compact JSON for objects and arrays
// with source key order intact, JSON literal forms for scalars.
func serialize(value gjson.Result) string {
	if value.IsObject() || value.IsArray() {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(value.Raw)); err != nil {
			return value.Raw
		}
		return buf.String()
	}

	switch value.Type {
	case gjson.Null:
		return "null"
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Number:
		return value.Raw
	default:
		return value.Str
	}
}
