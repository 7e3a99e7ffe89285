// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// SetupConfigHome points XDG_CONFIG_HOME at a temporary directory for the
// duration of the test and returns the monologue config directory inside it.
// The directory itself is not created.
func SetupConfigHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return filepath.Join(home, "monologue")
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadJSONLines decodes a JSON-lines file such as debug.log. Blank lines
// are skipped; any other line that is not a JSON object fails the test.
func ReadJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer file.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("%s:%d is not valid JSON: %v", path, n, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return entries
}

// FilterEntries returns the entries whose key equals value.
func FilterEntries(entries []map[string]any, key string, value any) []map[string]any {
	var out []map[string]any
	for _, e := range entries {
		if e[key] == value {
			out = append(out, e)
		}
	}
	return out
}
