package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetNoteFlagsForTest(t *testing.T) {
	t.Helper()
	prevCreate := noteCreateFlag
	prevShow := noteShowFlag
	t.Cleanup(func() {
		noteCreateFlag = prevCreate
		noteShowFlag = prevShow
	})
	noteCreateFlag = false
	noteShowFlag = false
}

func noteConfigTOML(t *testing.T, globalBib, notesDir string) string {
	t.Helper()
	return testConfigTOML(t, globalBib) + `
[notes]
dir = "` + notesDir + `"
`
}

func TestNoteCreate(t *testing.T) {
	dir := t.TempDir()
	notesDir := filepath.Join(dir, "notes")
	setupContext(t, noteConfigTOML(t, filepath.Join(dir, "refs.bib"), notesDir), nil)
	resetNoteFlagsForTest(t)
	jsonOutput = true
	noteCreateFlag = true

	out := captureStdout(t, func() {
		if err := noteCmd.RunE(noteCmd, []string{"kay1996"}); err != nil {
			t.Errorf("note --create: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if !resp.OK {
		t.Fatalf("expected ok=true, got %+v", resp)
	}
	data, _ := resp.Data.(map[string]interface{})
	path, _ := data["path"].(string)
	if path == "" {
		t.Fatalf("expected created path, got %#v", resp.Data)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created note: %v", err)
	}
	if !strings.Contains(string(content), "kay1996") {
		t.Errorf("skeleton missing key:\n%s", content)
	}
	if !strings.Contains(string(content), "The Early History of Smalltalk") {
		t.Errorf("skeleton missing title:\n%s", content)
	}

	t.Run("second create refuses to overwrite", func(t *testing.T) {
		out := captureStdout(t, func() {
			if err := noteCmd.RunE(noteCmd, []string{"kay1996"}); err != nil {
				t.Errorf("note --create: %v", err)
			}
		})
		resp := decodeResponse(t, out)
		if resp.OK {
			t.Fatal("expected ok=false for existing note")
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeInvalidInput {
			t.Fatalf("expected code %q, got %+v", ErrCodeInvalidInput, resp.Error)
		}
	})
}

func TestNoteLocateJSON(t *testing.T) {
	dir := t.TempDir()
	notesDir := filepath.Join(dir, "notes")
	if err := os.MkdirAll(notesDir, 0o755); err != nil {
		t.Fatalf("mkdir notes: %v", err)
	}
	notePath := filepath.Join(notesDir, "kay1996.md")
	if err := os.WriteFile(notePath, []byte("# Smalltalk notes\n"), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	setupContext(t, noteConfigTOML(t, filepath.Join(dir, "refs.bib"), notesDir), nil)
	resetNoteFlagsForTest(t)
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := noteCmd.RunE(noteCmd, []string{"kay1996"}); err != nil {
			t.Errorf("note: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if !resp.OK {
		t.Fatalf("expected ok=true, got %+v", resp)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["path"] != notePath {
		t.Errorf("expected path %q, got %v", notePath, data["path"])
	}
}

func TestNoteMissingSuggestsCreate(t *testing.T) {
	dir := t.TempDir()
	notesDir := filepath.Join(dir, "notes")
	setupContext(t, noteConfigTOML(t, filepath.Join(dir, "refs.bib"), notesDir), nil)
	resetNoteFlagsForTest(t)
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := noteCmd.RunE(noteCmd, []string{"kay1996"}); err != nil {
			t.Errorf("note: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if resp.Error == nil || resp.Error.Code != ErrCodeKeyNotFound {
		t.Fatalf("expected code %q, got %+v", ErrCodeKeyNotFound, resp.Error)
	}
	if !strings.Contains(resp.Error.Hint, "--create") {
		t.Fatalf("expected create hint, got %+v", resp.Error)
	}
}

func TestNoteSection(t *testing.T) {
	content := `# Reading notes

## kay1996

Smalltalk history.

More.

## knuth1984

TeX.
`
	got := noteSection(content, 3)
	if !strings.Contains(got, "Smalltalk history.") || !strings.Contains(got, "More.") {
		t.Fatalf("section missing body:\n%s", got)
	}
	if strings.Contains(got, "TeX.") || strings.Contains(got, "knuth1984") {
		t.Fatalf("section leaked into next heading:\n%s", got)
	}
	if !strings.HasPrefix(got, "## kay1996") {
		t.Fatalf("section should start at its heading:\n%s", got)
	}

	t.Run("zero line returns everything", func(t *testing.T) {
		if got := noteSection(content, 0); got != content {
			t.Fatalf("expected full content, got:\n%s", got)
		}
	})

	t.Run("last section runs to end", func(t *testing.T) {
		got := noteSection(content, 9)
		if !strings.Contains(got, "TeX.") {
			t.Fatalf("expected trailing section body:\n%s", got)
		}
	})
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"# Title", 1},
		{"### Deep", 3},
		{"#не heading", 0},
		{"plain", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := headingLevel(tt.line); got != tt.want {
			t.Errorf("headingLevel(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
