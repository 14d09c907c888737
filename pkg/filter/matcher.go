// Package filter matches food names and descriptions against user-supplied terms.
package filter

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// Matcher holds a compiled set of filter terms. An item matches when any term
// matches any of its targets.
type Matcher struct {
	terms    []term
	supplied bool
}

type term interface {
	match(s string) bool
}

type substringTerm string

func (t substringTerm) match(s string) bool { return strings.Contains(s, string(t)) }

type globTerm struct{ g glob.Glob }

func (t globTerm) match(s string) bool { return t.g.Match(s) }

type regexTerm struct{ re *regexp.Regexp }

func (t regexTerm) match(s string) bool { return t.re.MatchString(s) }

// New compiles terms. Without useRegex a term containing '*' or '?' is a glob
// over the whole string and anything else is a substring test. With useRegex every
// term is a case-insensitive regular expression searched anywhere in the string.
// Terms that fail to compile are logged and skipped.
func New(terms []string, useRegex bool, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Matcher{}
	for _, raw := range terms {
		if raw == "" {
			continue
		}
		m.supplied = true
		t := strings.ToLower(raw)

		switch {
		case useRegex:
			// Regex terms keep their case so escapes like \D are not rewritten.
			re, err := regexp.Compile("(?i)" + raw)
			if err != nil {
				logger.Warn("Skipping invalid regex filter term",
					zap.String("term", raw),
					zap.Error(err))
				continue
			}
			m.terms = append(m.terms, regexTerm{re: re})
		case strings.ContainsAny(t, "*?"):
			g, err := glob.Compile(globPattern(t))
			if err != nil {
				logger.Warn("Skipping invalid glob filter term",
					zap.String("term", raw),
					zap.Error(err))
				continue
			}
			m.terms = append(m.terms, globTerm{g: g})
		default:
			m.terms = append(m.terms, substringTerm(t))
		}
	}
	return m
}

// globPattern escapes the characters glob gives meaning to but shell-style
// wildcards match literally: braces, backslashes and a '[' with no closing ']'.
func globPattern(term string) string {
	var b strings.Builder
	for i, r := range term {
		switch r {
		case '{', '}', '\\':
			b.WriteRune('\\')
		case '[':
			if !strings.ContainsRune(term[i+1:], ']') {
				b.WriteRune('\\')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Empty reports whether no filter terms were supplied, in which case everything matches.
func (m *Matcher) Empty() bool {
	return m == nil || !m.supplied
}

// Match reports whether any term matches any of targets. Matching is case-insensitive.
func (m *Matcher) Match(targets ...string) bool {
	if m.Empty() {
		return true
	}
	for _, target := range targets {
		s := strings.ToLower(target)
		for _, t := range m.terms {
			if t.match(s) {
				return true
			}
		}
	}
	return false
}
