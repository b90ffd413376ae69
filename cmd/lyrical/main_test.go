package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "single-dash tcpipv4addr",
			input: []string{"-tcpipv4addr", "test.lyr"},
			want:  []string{"--tcpipv4addr", "test.lyr"},
		},
		{
			name:  "single-dash tcpipv4addr with value",
			input: []string{"-tcpipv4addr=1.2.3.4:80", "test.lyr"},
			want:  []string{"--tcpipv4addr=1.2.3.4:80", "test.lyr"},
		},
		{
			name:  "double-dash unchanged",
			input: []string{"--tcpipv4addr", "test.lyr"},
			want:  []string{"--tcpipv4addr", "test.lyr"},
		},
		{
			name:  "short flags unchanged",
			input: []string{"-l", "-g", "-E", "test.lyr"},
			want:  []string{"-l", "-g", "-E", "test.lyr"},
		},
		{
			name:  "unknown single-dash flag unchanged",
			input: []string{"-x", "test.lyr"},
			want:  []string{"-x", "test.lyr"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeFlags(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("normalizeFlags(%v) = %v, want %v", tc.input, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("normalizeFlags(%v) = %v, want %v", tc.input, got, tc.want)
				}
			}
		})
	}
}

func resetCompileFlags() {
	writeLog = false
	writeDebug = false
	preprocessOnly = false
	includePaths = nil
	tcpipv4addr = ""
	noCache = false
	watchSources = false
}

func TestCompileCommandRegistersTCPIPv4AddrWithNoOptDefVal(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	compileCmd, _, err := cmd.Find([]string{"compile"})
	if err != nil {
		t.Fatalf("finding compile command: %v", err)
	}
	flag := compileCmd.Flags().Lookup("tcpipv4addr")
	if flag == nil {
		t.Fatal("expected --tcpipv4addr flag to be registered")
	}
	if flag.NoOptDefVal != "0.0.0.0:8080" {
		t.Fatalf("NoOptDefVal = %q, want %q", flag.NoOptDefVal, "0.0.0.0:8080")
	}
}

func TestPreprocessOnlyPrintsPreprocessedSource(t *testing.T) {
	resetCompileFlags()
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "test.lyr")
	if err := os.WriteFile(src, []byte("`define ANSWER 42\nx = ANSWER;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"compile", "--preprocess", src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out.String(), "x = 42;") {
		t.Fatalf("expected preprocessed output to contain %q, got %q", "x = 42;", out.String())
	}
}

func TestCompileWritesCacheAndLog(t *testing.T) {
	resetCompileFlags()
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "test.lyr")
	if err := os.WriteFile(src, []byte("x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cacheRoot := filepath.Join(tmpDir, "cache")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"compile", "--log", "--cache-dir", cacheRoot, src})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var logPath string
	filepath.Walk(cacheRoot, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && info.Name() == "log" {
			logPath = path
		}
		return nil
	})
	if logPath == "" {
		t.Fatal("expected a log file to be written under the cache directory")
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "functions: 1") {
		t.Fatalf("log contents = %q, want it to mention 1 function", data)
	}
}

func TestCompileIsIdempotentAcrossCacheHit(t *testing.T) {
	resetCompileFlags()
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "test.lyr")
	if err := os.WriteFile(src, []byte("x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cacheRoot := filepath.Join(tmpDir, "cache")

	for i := 0; i < 2; i++ {
		var out, errOut bytes.Buffer
		cmd := newRootCmd(&out, &errOut)
		cmd.SetArgs([]string{"compile", "--cache-dir", cacheRoot, src})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("execute run %d: %v", i, err)
		}
		if !strings.Contains(errOut.String(), "compiled") {
			t.Fatalf("run %d: expected a compiled-program message, got %q", i, errOut.String())
		}
	}
}
