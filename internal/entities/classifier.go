package entities

import (
	"strings"
	"unicode"

	"github.com/scrypster/docket/pkg/types"
)

// Classifier assigns roles and coarse types to entity names using the ordered
// pattern rules plus keyword heuristics.
type Classifier struct {
	rules *Rules
}

// NewClassifier creates a Classifier over the given rules.
func NewClassifier(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// ClassifyRole evaluates the ordered role rules against a name. The first
// rule with a matching keyword wins. Returns ok=false when no rule matches;
// the caller must then leave the entity's role untouched.
//
// Keywords match as whole words, never substrings: classification is
// monotonic, so a substring hit ("court" inside "Courtney") would pin a wrong
// role forever.
func (c *Classifier) ClassifyRole(name string) (role string, entityType string, ok bool) {
	lower := strings.ToLower(name)
	for _, rule := range c.rules.Roles {
		for _, keyword := range rule.Keywords {
			if matchesKeyword(lower, keyword) {
				return rule.Role, rule.Type, true
			}
		}
	}
	return "", "", false
}

// matchesKeyword matches single-word keywords as whole words and multi-word
// keywords ("law office") as phrases.
func matchesKeyword(lower, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(lower, keyword)
	}
	return containsWord(lower, keyword)
}

// ClassifyType infers a coarse entity type from the name alone, used when a
// fresh entity is stored. Keyword heuristics run first; a name of 2 to 4
// capitalized tokens with no organizational or location keyword is assumed to
// be a person.
func (c *Classifier) ClassifyType(name string) string {
	lower := strings.ToLower(name)

	for _, keyword := range c.rules.OrgKeywords {
		if containsWord(lower, keyword) {
			return types.EntityOrganization
		}
	}

	for _, keyword := range c.rules.LocationKeywords {
		if containsWord(lower, keyword) {
			return types.EntityLocation
		}
	}

	if looksLikePersonName(name) {
		return types.EntityPerson
	}

	return types.EntityUnknown
}

// looksLikePersonName reports whether the name is 2 to 4 tokens that each
// start with an uppercase letter.
func looksLikePersonName(name string) bool {
	tokens := strings.Fields(name)
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for _, token := range tokens {
		runes := []rune(token)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
	}
	return true
}

// containsWord reports whether keyword appears in s as a whole word, so that
// "co." matches "Acme Co." but "island" does not fire inside "Islander".
func containsWord(s, keyword string) bool {
	for _, word := range strings.Fields(s) {
		word = strings.Trim(word, ".,;:")
		if word == strings.Trim(keyword, ".") {
			return true
		}
	}
	return false
}
