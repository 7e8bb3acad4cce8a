package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const bagRequestJSON = `{
  "description": "Leather tote with custom D-ring",
  "category": "bags-leather",
  "customization": {"features": ["D-ring hardware"]},
  "moq": 300
}`

const bagRequestYAML = `description: Leather tote with custom D-ring
category: bags-leather
customization:
  features:
    - D-ring hardware
moq: 300
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestClassifyJSONFile(t *testing.T) {
	path := writeFile(t, "request.json", bagRequestJSON)

	out, err := runCLI(t, "classify", "-f", path)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	var result struct {
		Classification struct {
			Level            int `json:"level"`
			FeasibilityScore int `json:"feasibilityScore"`
		} `json:"classification"`
		Quote *json.RawMessage `json:"quote"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Classification.Level != 2 {
		t.Fatalf("expected level 2, got %d", result.Classification.Level)
	}
	if result.Classification.FeasibilityScore != 80 {
		t.Fatalf("expected score 80, got %d", result.Classification.FeasibilityScore)
	}
	if result.Quote != nil {
		t.Fatalf("quote should be omitted without --quote")
	}
}

func TestClassifyYAMLFileWithQuote(t *testing.T) {
	path := writeFile(t, "request.yaml", bagRequestYAML)

	out, err := runCLI(t, "classify", "-f", path, "--quote", "-o", "yaml")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "level: 2") {
		t.Errorf("expected yaml level, got:\n%s", out)
	}
	if !strings.Contains(out, "setupFees: 150") {
		t.Errorf("expected quote setup fee, got:\n%s", out)
	}
	if !strings.Contains(out, "name: Classic Leather tote with custom D-ring") {
		t.Errorf("expected quote to price the default concept, got:\n%s", out)
	}
}

func TestClassifyRejectsUnknownCategory(t *testing.T) {
	path := writeFile(t, "request.json", `{"description":"Desk","category":"furniture"}`)

	_, err := runCLI(t, "classify", "-f", path)
	if err == nil || !strings.Contains(err.Error(), "category") {
		t.Fatalf("expected category error, got %v", err)
	}
}

func TestClassifyRequiresFile(t *testing.T) {
	if _, err := runCLI(t, "classify"); err == nil {
		t.Fatal("expected error without --file")
	}
}

func TestUnsupportedOutputFormat(t *testing.T) {
	if _, err := runCLI(t, "levels", "-o", "xml"); err == nil {
		t.Fatal("expected error for xml output")
	}
}

func TestParseText(t *testing.T) {
	out, err := runCLI(t, "parse", "tote", "bags", "with", "embroidered", "logo")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if parsed["rawText"] != "tote bags with embroidered logo" {
		t.Fatalf("unexpected rawText: %v", parsed["rawText"])
	}
}

func TestLevels(t *testing.T) {
	out, err := runCLI(t, "levels", "--table")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	for _, want := range []string{"LEVEL", "L1", "L5"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table, got:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "levels", "3")
	if err != nil {
		t.Fatalf("levels 3: %v", err)
	}
	if !strings.Contains(out, `"level": 3`) {
		t.Errorf("expected level 3 detail, got:\n%s", out)
	}

	if _, err := runCLI(t, "levels", "9"); err == nil {
		t.Fatal("expected error for level 9")
	}
}
