package entities

import (
	"testing"

	"github.com/scrypster/docket/pkg/types"
)

func TestClassifyRoleFirstMatchWins(t *testing.T) {
	classifier := NewClassifier(&Rules{
		Roles: []RoleRule{
			{Keywords: []string{"judge"}, Role: "Judge", Type: "person"},
			{Keywords: []string{"court"}, Role: "Government", Type: "organization"},
		},
	})

	// "judge" appears before "court" in the rule order, so it wins even
	// though both keywords match.
	role, entityType, ok := classifier.ClassifyRole("Judge of the District Court")
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if role != "Judge" || entityType != "person" {
		t.Errorf("got role=%q type=%q, want first rule", role, entityType)
	}
}

func TestClassifyRoleDefaults(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		input string
		role  string
	}{
		{"Alan Dershowitz Esq", "Attorney"},
		{"Deutsche Bank", "Financial Institution"},
		{"Federal Bureau of Investigation", "Government"},
		{"Harvard University", "Institution"},
	}
	for _, tt := range tests {
		role, _, ok := classifier.ClassifyRole(tt.input)
		if !ok {
			t.Errorf("expected a rule to match %q", tt.input)
			continue
		}
		if role != tt.role {
			t.Errorf("ClassifyRole(%q) = %q, want %q", tt.input, role, tt.role)
		}
	}

	if _, _, ok := classifier.ClassifyRole("Virginia Giuffre"); ok {
		t.Error("expected no rule match for a plain personal name")
	}
}

func TestClassifyRoleMatchesWholeWordsOnly(t *testing.T) {
	classifier := NewClassifier(nil)

	// Keywords embedded inside ordinary name tokens must not fire: the role
	// would be pinned permanently by monotonic classification.
	for _, name := range []string{
		"Courtney Wild", // "court" inside Courtney
		"Juan Alessi",
		"Sarah Ransome",
		"Adriana Mucinska",
	} {
		if role, _, ok := classifier.ClassifyRole(name); ok {
			t.Errorf("ClassifyRole(%q) matched role %q, want no match", name, role)
		}
	}

	// Whole words and phrases still match.
	tests := []struct {
		input string
		role  string
	}{
		{"United States District Court", "Government"},
		{"Law Office of Alan Dershowitz", "Attorney"},
		{"Special Agent Jason Richards", "Investigator"},
	}
	for _, tt := range tests {
		role, _, ok := classifier.ClassifyRole(tt.input)
		if !ok {
			t.Errorf("expected a rule to match %q", tt.input)
			continue
		}
		if role != tt.role {
			t.Errorf("ClassifyRole(%q) = %q, want %q", tt.input, role, tt.role)
		}
	}
}

func TestClassifyType(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		input string
		want  string
	}{
		{"Virginia Giuffre", types.EntityPerson},
		{"Jean Luc Brunel", types.EntityPerson},
		{"Southern Trust Inc", types.EntityOrganization},
		{"Acme Holdings LLC", types.EntityOrganization},
		{"Little St James Island", types.EntityLocation},
		{"East 71st Street", types.EntityLocation},
		{"xyzzy", types.EntityUnknown},
		{"Maxwell", types.EntityUnknown}, // single token, not enough signal
	}
	for _, tt := range tests {
		if got := classifier.ClassifyType(tt.input); got != tt.want {
			t.Errorf("ClassifyType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
