// Package entities extracts, normalizes, classifies, and prunes the named
// entities referenced by archive documents.
package entities

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoleRule maps name keywords to a role label. Rules are evaluated in order;
// the first rule with a matching keyword wins.
type RoleRule struct {
	// Keywords are matched case-insensitively as whole words of the name;
	// a keyword containing a space matches as a phrase.
	Keywords []string `yaml:"keywords"`
	Role     string   `yaml:"role"`
	Type     string   `yaml:"type"`
}

// Rules is the externally-editable pattern configuration for classification
// and garbage filtering. Keeping the patterns in data rather than control
// flow lets the lists evolve without touching the passes that apply them.
type Rules struct {
	Roles            []RoleRule `yaml:"roles"`
	Stoplist         []string   `yaml:"stoplist"`
	OrgKeywords      []string   `yaml:"org_keywords"`
	LocationKeywords []string   `yaml:"location_keywords"`
	OCRFragments     []string   `yaml:"ocr_fragments"`
}

// LoadRules reads a rules file in YAML format. An empty path returns the
// compiled-in defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("entities: failed to read rules file %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("entities: failed to parse rules file %s: %w", path, err)
	}

	// A partial file overrides only the sections it provides.
	defaults := DefaultRules()
	if len(rules.Roles) == 0 {
		rules.Roles = defaults.Roles
	}
	if len(rules.Stoplist) == 0 {
		rules.Stoplist = defaults.Stoplist
	}
	if len(rules.OrgKeywords) == 0 {
		rules.OrgKeywords = defaults.OrgKeywords
	}
	if len(rules.LocationKeywords) == 0 {
		rules.LocationKeywords = defaults.LocationKeywords
	}
	if len(rules.OCRFragments) == 0 {
		rules.OCRFragments = defaults.OCRFragments
	}

	return &rules, nil
}

// DefaultRules returns the compiled-in pattern configuration.
func DefaultRules() *Rules {
	return &Rules{
		Roles: []RoleRule{
			{Keywords: []string{"judge", "hon.", "honorable"}, Role: "Judge", Type: "person"},
			{Keywords: []string{"esq", "attorney", "counsel", "law office"}, Role: "Attorney", Type: "person"},
			{Keywords: []string{"agent", "detective", "investigator"}, Role: "Investigator", Type: "person"},
			{Keywords: []string{"dr.", "m.d.", "professor"}, Role: "Professional", Type: "person"},
			{Keywords: []string{"pilot", "captain"}, Role: "Staff", Type: "person"},
			{Keywords: []string{"bank", "trust", "capital", "holdings", "fund"}, Role: "Financial Institution", Type: "organization"},
			{Keywords: []string{"university", "institute", "school", "college"}, Role: "Institution", Type: "organization"},
			{Keywords: []string{"department", "bureau", "agency", "commission", "court"}, Role: "Government", Type: "organization"},
			{Keywords: []string{"airline", "airways", "aviation"}, Role: "Carrier", Type: "organization"},
		},
		Stoplist: []string{
			"page", "date", "subject", "from", "to", "re", "cc", "bcc",
			"unknown", "none", "redacted", "confidential", "exhibit",
			"attachment", "draft", "copy", "original", "document",
			"monday", "tuesday", "wednesday", "thursday", "friday",
			"saturday", "sunday", "january", "february", "march", "april",
			"may", "june", "july", "august", "september", "october",
			"november", "december",
		},
		OrgKeywords: []string{
			"inc", "llc", "ltd", "corp", "corporation", "company", "co.",
			"associates", "partners", "group", "foundation", "enterprises",
		},
		LocationKeywords: []string{
			"street", "avenue", "boulevard", "road", "drive", "lane",
			"island", "ranch", "estate", "building", "tower", "plaza",
			"apartment", "suite",
		},
		OCRFragments: []string{
			"lhe", "tbe", "ihe", "wilh", "lhat", "tne", "ol", "lo",
		},
	}
}
