package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRuleFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const safetyPack = `
layer: SAFETY
rules:
  - id: sre-no-forced-deletes
    effect: FORBID
    when: { field: command, op: contains, value: "--force" }
`

const regulatoryPack = `
layer: REGULATORY
rules:
  - id: gdpr-cross-border-transfer
    effect: FORBID
    when:
      all:
        - { field: action_kind, op: "==", value: TRANSFER }
        - { not: { field: region, op: "==", value: EU } }
`

// TestFileSource_LoadDirectory tests loading every YAML file in a
// directory.
func TestFileSource_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "safety.yaml", safetyPack)
	writeRuleFile(t, dir, "regulatory.yml", regulatoryPack)
	writeRuleFile(t, dir, "README.md", "not a rule file")

	all, err := NewFileSource(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(all))
	}

	ids := map[string]bool{}
	for _, r := range all {
		ids[r.ID] = true
	}
	if !ids["sre-no-forced-deletes"] || !ids["gdpr-cross-border-transfer"] {
		t.Errorf("loaded rule IDs = %v", ids)
	}
}

// TestFileSource_LoadSingleFile tests pointing the source at one file.
func TestFileSource_LoadSingleFile(t *testing.T) {
	path := writeRuleFile(t, t.TempDir(), "safety.yaml", safetyPack)

	all, err := NewFileSource(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != "sre-no-forced-deletes" {
		t.Errorf("rules = %+v", all)
	}
}

// TestFileSource_DuplicateAcrossFiles tests that the same rule ID in
// two files is rejected.
func TestFileSource_DuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "a.yaml", safetyPack)
	writeRuleFile(t, dir, "b.yaml", safetyPack)

	_, err := NewFileSource(dir, nil).Load(context.Background())
	if err == nil {
		t.Fatal("expected duplicate ID error")
	}
	if !strings.Contains(err.Error(), "sre-no-forced-deletes") {
		t.Errorf("error = %v, want the duplicated rule ID", err)
	}
}

// TestFileSource_MissingPath tests the stat error path.
func TestFileSource_MissingPath(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "absent"), nil).Load(context.Background()); err == nil {
		t.Error("expected error for missing path")
	}
}

// TestFileSource_ParseErrorAborts tests that one broken file fails the
// whole load.
func TestFileSource_ParseErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "good.yaml", safetyPack)
	writeRuleFile(t, dir, "broken.yaml", "layer: SAFETY\nrules:\n  - effect: FORBID\n")

	if _, err := NewFileSource(dir, nil).Load(context.Background()); err == nil {
		t.Error("expected parse error to abort the load")
	}
}
