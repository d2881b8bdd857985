// Package golden compares test output against files under testdata/.
// Run the tests with -update to rewrite the files from current output.
package golden

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

var Update = flag.Bool("update", false, "update golden files")

// TestdataDir returns the testdata directory next to the calling test file.
func TestdataDir(t *testing.T) string {
	t.Helper()
	return testdataDir(t, 2)
}

func testdataDir(t *testing.T, skip int) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(skip)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// Assert compares got with testdata/<name>.golden next to the calling
// test file, rewriting the file first when -update is set.
func Assert(t *testing.T, name, got string) {
	t.Helper()
	dir := testdataDir(t, 2)

	if *Update {
		Write(t, dir, name, got)
	}

	want, ok := read(t, dir, name)
	if !ok {
		t.Fatalf("golden file %s.golden missing; run with -update", name)
	}
	if got != want {
		t.Errorf("output differs from %s.golden\n--- got ---\n%s\n--- want ---\n%s", name, got, want)
	}
}

// Read returns the golden content, or "" when the file does not exist.
func Read(t *testing.T, testdataDir, name string) string {
	t.Helper()
	content, _ := read(t, testdataDir, name)
	return content
}

func read(t *testing.T, testdataDir, name string) (string, bool) {
	t.Helper()
	safeName(t, name)

	path := filepath.Join(testdataDir, name+".golden")
	data, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil {
		if os.IsNotExist(err) {
			return "", false
		}
		t.Fatalf("read golden %s: %v", path, err)
	}
	return string(data), true
}

func Write(t *testing.T, testdataDir, name, content string) {
	t.Helper()
	safeName(t, name)

	if err := os.MkdirAll(testdataDir, 0o750); err != nil {
		t.Fatalf("mkdir testdata: %v", err)
	}
	path := filepath.Join(testdataDir, name+".golden")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
}

func safeName(t *testing.T, name string) {
	t.Helper()
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		t.Fatalf("invalid golden name %q", name)
	}
}
