// Package match decides whether a folder's file listing contains the target
// file and whether a folder is excluded from a scan.
package match

import (
	"path/filepath"
	"strings"
)

// Rule identifies which comparison matched a file name
type Rule int

const (
	RuleNone Rule = iota
	RuleExactName
	RuleExactStem
	RulePartialName
	RulePartialStem
)

// String returns a human-readable rule name
func (r Rule) String() string {
	switch r {
	case RuleExactName:
		return "exact name"
	case RuleExactStem:
		return "exact name without extension"
	case RulePartialName:
		return "partial name"
	case RulePartialStem:
		return "partial name without extension"
	default:
		return "none"
	}
}

// Match describes the first file that satisfied the target
type Match struct {
	File string
	Rule Rule
}

// StripExt returns name without its final extension. Leading dots do not
// start an extension, so ".env" is returned unchanged.
func StripExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || strings.Trim(name[:i], ".") == "" {
		return name
	}
	return name[:i]
}

// FindMatch returns the first file in names that satisfies target, checking
// each file against the exact rules before the partial ones.
func FindMatch(names []string, target string) (Match, bool) {
	t := strings.ToLower(target)
	if t == "" {
		return Match{}, false
	}

	for _, name := range names {
		full := strings.ToLower(name)
		stem := strings.ToLower(StripExt(name))

		switch {
		case full == t:
			return Match{File: name, Rule: RuleExactName}, true
		case stem == t:
			return Match{File: name, Rule: RuleExactStem}, true
		case strings.Contains(full, t):
			return Match{File: name, Rule: RulePartialName}, true
		case strings.Contains(stem, t):
			return Match{File: name, Rule: RulePartialStem}, true
		}
	}
	return Match{}, false
}

// IsFileFoundIn reports whether any of names satisfies target
func IsFileFoundIn(names []string, target string) bool {
	_, ok := FindMatch(names, target)
	return ok
}

// ShouldExclude reports whether the folder's base name or full path contains
// any of the exclusion terms. Terms are expected to be lower-case already
// (see ParseExclusions).
func ShouldExclude(folderPath string, exclusions []string) bool {
	if len(exclusions) == 0 {
		return false
	}

	name := strings.ToLower(filepath.Base(folderPath))
	full := strings.ToLower(folderPath)

	for _, term := range exclusions {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(name, term) || strings.Contains(full, term) {
			return true
		}
	}
	return false
}

// ParseExclusions splits a comma-separated list into trimmed, lower-cased
// terms, dropping empty entries.
func ParseExclusions(raw string) []string {
	return NormalizeExclusions(strings.Split(raw, ","))
}

// NormalizeExclusions trims and lower-cases terms, dropping empty entries
func NormalizeExclusions(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			out = append(out, term)
		}
	}
	return out
}
