package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// preprocessCase is one entry of testdata/preprocess_cases.yaml: a snippet
// of Lyrical source plus assertions about its preprocessed output.
type preprocessCase struct {
	Name        string   `yaml:"name"`
	Input       string   `yaml:"input"`
	Expect      []string `yaml:"expect"`
	ExpectOrder []string `yaml:"expect_order"`
	ExpectNot   []string `yaml:"expect_not"`
}

type preprocessCaseFile struct {
	Tests []preprocessCase `yaml:"tests"`
}

// TestPreprocessCases runs every case in testdata/preprocess_cases.yaml
// through "compile --preprocess" and checks the resulting source against
// its expect/expect_order/expect_not assertions.
func TestPreprocessCases(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "preprocess_cases.yaml"))
	if err != nil {
		t.Fatalf("reading preprocess_cases.yaml: %v", err)
	}
	var file preprocessCaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("parsing preprocess_cases.yaml: %v", err)
	}
	if len(file.Tests) == 0 {
		t.Fatal("expected at least one case in preprocess_cases.yaml")
	}

	for _, tc := range file.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			resetCompileFlags()
			tmpDir := t.TempDir()
			src := filepath.Join(tmpDir, "case.lyr")
			if err := os.WriteFile(src, []byte(tc.Input), 0o644); err != nil {
				t.Fatal(err)
			}

			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"compile", "--preprocess", src})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			got := out.String()

			for _, want := range tc.Expect {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q, got %q", want, got)
				}
			}
			for _, notWant := range tc.ExpectNot {
				if strings.Contains(got, notWant) {
					t.Errorf("output unexpectedly contains %q, got %q", notWant, got)
				}
			}
			lastIdx := -1
			for _, want := range tc.ExpectOrder {
				idx := strings.Index(got, want)
				if idx == -1 {
					t.Errorf("output missing ordered fragment %q, got %q", want, got)
					continue
				}
				if idx < lastIdx {
					t.Errorf("fragment %q appeared out of order, got %q", want, got)
				}
				lastIdx = idx
			}
		})
	}
}
