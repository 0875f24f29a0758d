package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openshelf/prettygw/internal/config"
)

// Matcher is the interface for rule path matching. Match reports
// whether the path matches and returns the named captures.
type Matcher interface {
	Match(path string) (bool, map[string]string)
	Type() string
	Pattern() string
	CaptureNames() []string
}

// NewMatcher creates the path matcher for a rule pattern.
func NewMatcher(match config.RewriteMatch) (Matcher, error) {
	switch {
	case match.Exact != "":
		return NewExactMatcher(match.Exact), nil
	case match.Template != "":
		return NewTemplateMatcher(match.Template)
	case match.Regex != "":
		return NewRegexMatcher(match.Regex)
	default:
		return nil, fmt.Errorf("no pattern configured")
	}
}

// ExactMatcher matches the full path literally.
type ExactMatcher struct {
	path string
}

// NewExactMatcher creates a new exact path matcher.
func NewExactMatcher(path string) *ExactMatcher {
	return &ExactMatcher{path: path}
}

// Match checks if the path matches exactly.
func (m *ExactMatcher) Match(path string) (matched bool, captures map[string]string) {
	return path == m.path, nil
}

// Type returns the matcher type.
func (m *ExactMatcher) Type() string {
	return "exact"
}

// Pattern returns the pattern.
func (m *ExactMatcher) Pattern() string {
	return m.path
}

// CaptureNames returns nil; exact patterns capture nothing.
func (m *ExactMatcher) CaptureNames() []string {
	return nil
}

// RegexMatcher matches the full path against an RE2 expression with
// named groups. Anchors are added when the pattern omits them.
type RegexMatcher struct {
	pattern string
	regex   *regexp.Regexp
}

// NewRegexMatcher creates a new regex path matcher.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	anchored := pattern
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^" + anchored
	}
	if !strings.HasSuffix(anchored, "$") {
		anchored += "$"
	}

	regex, err := regexp.Compile(anchored)
	if err != nil {
		return nil, err
	}

	return &RegexMatcher{
		pattern: pattern,
		regex:   regex,
	}, nil
}

// Match checks if the path matches the regex and extracts named groups.
func (m *RegexMatcher) Match(path string) (matched bool, captures map[string]string) {
	matches := m.regex.FindStringSubmatch(path)
	if matches == nil {
		return false, nil
	}

	captures = make(map[string]string)
	for i, name := range m.regex.SubexpNames() {
		if i > 0 && name != "" && i < len(matches) {
			captures[name] = matches[i]
		}
	}

	return true, captures
}

// Type returns the matcher type.
func (m *RegexMatcher) Type() string {
	return "regex"
}

// Pattern returns the pattern as configured, without added anchors.
func (m *RegexMatcher) Pattern() string {
	return m.pattern
}

// CaptureNames returns the named groups of the pattern.
func (m *RegexMatcher) CaptureNames() []string {
	var names []string
	for i, name := range m.regex.SubexpNames() {
		if i > 0 && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// TemplateMatcher matches segment templates with {name} captures, one
// path segment each, e.g. /search/{type}.
type TemplateMatcher struct {
	pattern  string
	segments []segment
	regex    *regexp.Regexp
}

type segment struct {
	value       string
	isCapture   bool
	captureName string
}

// NewTemplateMatcher creates a new template path matcher.
func NewTemplateMatcher(pattern string) (*TemplateMatcher, error) {
	segments := parseTemplate(pattern)

	// Build regex from the template segments
	var regexPattern strings.Builder
	regexPattern.WriteString("^")

	for _, seg := range segments {
		if seg.isCapture {
			regexPattern.WriteString("/(?P<")
			regexPattern.WriteString(seg.captureName)
			regexPattern.WriteString(">[^/]+)")
		} else {
			regexPattern.WriteString("/")
			regexPattern.WriteString(regexp.QuoteMeta(seg.value))
		}
	}
	regexPattern.WriteString("$")

	regex, err := regexp.Compile(regexPattern.String())
	if err != nil {
		return nil, err
	}

	return &TemplateMatcher{
		pattern:  pattern,
		segments: segments,
		regex:    regex,
	}, nil
}

// parseTemplate parses a segment template into segments. A segment
// wrapped entirely in braces is a capture; anything else is literal.
func parseTemplate(pattern string) []segment {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segments := make([]segment, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			segments = append(segments, segment{
				value:       part,
				isCapture:   true,
				captureName: part[1 : len(part)-1],
			})
		} else {
			segments = append(segments, segment{
				value: part,
			})
		}
	}

	return segments
}

// Match checks if the path matches the template and extracts captures.
func (m *TemplateMatcher) Match(path string) (matched bool, captures map[string]string) {
	matches := m.regex.FindStringSubmatch(path)
	if matches == nil {
		return false, nil
	}

	captures = make(map[string]string)
	for i, name := range m.regex.SubexpNames() {
		if i > 0 && name != "" && i < len(matches) {
			captures[name] = matches[i]
		}
	}

	return true, captures
}

// Type returns the matcher type.
func (m *TemplateMatcher) Type() string {
	return "template"
}

// Pattern returns the pattern.
func (m *TemplateMatcher) Pattern() string {
	return m.pattern
}

// CaptureNames returns the {name} captures of the template.
func (m *TemplateMatcher) CaptureNames() []string {
	var names []string
	for _, seg := range m.segments {
		if seg.isCapture {
			names = append(names, seg.captureName)
		}
	}
	return names
}
