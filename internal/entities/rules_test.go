package entities

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if len(rules.Roles) == 0 || len(rules.Stoplist) == 0 {
		t.Error("expected compiled-in defaults to be populated")
	}
}

func TestLoadRulesPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `roles:
  - keywords: ["chef"]
    role: Staff
    type: person
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	if len(rules.Roles) != 1 || rules.Roles[0].Role != "Staff" {
		t.Errorf("expected file roles to override defaults, got %v", rules.Roles)
	}
	if len(rules.Stoplist) == 0 {
		t.Error("expected default stoplist to survive a partial file")
	}

	classifier := NewClassifier(rules)
	role, _, ok := classifier.ClassifyRole("Adam the Chef")
	if !ok || role != "Staff" {
		t.Errorf("expected custom rule to apply, got %q ok=%v", role, ok)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing rules file")
	}
}

func TestLoadRulesMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("roles: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for malformed rules file")
	}
}
