package match

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"config.txt", "config"},
		{"archive.tar.gz", "archive.tar"},
		{"README", "README"},
		{".env", ".env"},
		{"..hidden", "..hidden"},
		{".config.yaml", ".config"},
		{"trailing.", "trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripExt(tt.name))
		})
	}
}

func TestFindMatchRules(t *testing.T) {
	tests := []struct {
		desc   string
		names  []string
		target string
		file   string
		rule   Rule
		found  bool
	}{
		{"exact name", []string{"config.txt"}, "config.txt", "config.txt", RuleExactName, true},
		{"exact name ignores case", []string{"Config.TXT"}, "config.txt", "Config.TXT", RuleExactName, true},
		{"exact stem", []string{"readme.md"}, "README", "readme.md", RuleExactStem, true},
		{"partial name", []string{"myconfig.txt.bak"}, "config.txt", "myconfig.txt.bak", RulePartialName, true},
		{"partial name checked before stem", []string{"notes_v2.md"}, "notes", "notes_v2.md", RulePartialName, true},
		{"no match", []string{"x.log", "data.csv"}, "x.txt", "", RuleNone, false},
		{"empty listing", nil, "x.txt", "", RuleNone, false},
		{"empty target never matches", []string{"a.txt"}, "", "", RuleNone, false},
		{"first file wins", []string{"aconfig.txt", "config.txt"}, "config.txt", "aconfig.txt", RulePartialName, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			m, ok := FindMatch(tt.names, tt.target)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.file, m.File)
			assert.Equal(t, tt.rule, m.Rule)
			assert.Equal(t, tt.found, IsFileFoundIn(tt.names, tt.target))
		})
	}
}

func TestFindMatchPrefersExactWithinAFile(t *testing.T) {
	// "config" is both the stem and a substring of the full name; the
	// exact stem rule must be reported.
	m, ok := FindMatch([]string{"CONFIG.yaml"}, "config")
	assert.True(t, ok)
	assert.Equal(t, RuleExactStem, m.Rule)
}

func TestShouldExclude(t *testing.T) {
	root := filepath.Join("projects", "app")

	tests := []struct {
		desc  string
		path  string
		terms []string
		want  bool
	}{
		{"no terms", filepath.Join(root, "node_modules"), nil, false},
		{"base name substring", filepath.Join(root, "node_modules"), []string{"node"}, true},
		{"case insensitive", filepath.Join(root, "Node_Modules"), []string{"NODE"}, true},
		{"full path substring", filepath.Join(root, "temp", "cache"), []string{"temp"}, true},
		{"no match", filepath.Join(root, "data"), []string{"temp"}, false},
		{"blank term ignored", filepath.Join(root, "data"), []string{"  "}, false},
		{"any term matches", filepath.Join(root, "build"), []string{"temp", "build"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldExclude(tt.path, tt.terms))
		})
	}
}

func TestParseExclusions(t *testing.T) {
	assert.Equal(t, []string{"node", "temp", ".git"}, ParseExclusions(" Node, TEMP ,, .git ,"))
	assert.Empty(t, ParseExclusions(""))
	assert.Empty(t, ParseExclusions(" , ,"))
}

func TestRuleString(t *testing.T) {
	assert.Equal(t, "exact name", RuleExactName.String())
	assert.Equal(t, "none", RuleNone.String())
}
