package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEntryJSON(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), nil)
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := entryCmd.RunE(entryCmd, []string{"kay1996"}); err != nil {
			t.Errorf("entry: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if !resp.OK {
		t.Fatalf("expected ok=true, got %+v", resp)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data shape: %#v", resp.Data)
	}
	if data["key"] != "kay1996" {
		t.Errorf("expected key kay1996, got %v", data["key"])
	}
	if data["type"] != "article" {
		t.Errorf("expected type article, got %v", data["type"])
	}
	fields, ok := data["fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected fields shape: %#v", data["fields"])
	}
	if fields["title"] != "The Early History of Smalltalk" {
		t.Errorf("unexpected title: %v", fields["title"])
	}
	for name := range fields {
		if strings.HasPrefix(name, "=") {
			t.Errorf("pseudo-field %q leaked into JSON fields", name)
		}
	}
}

func TestEntryTextTable(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), nil)

	out := captureStdout(t, func() {
		if err := entryCmd.RunE(entryCmd, []string{"knuth1984"}); err != nil {
			t.Errorf("entry: %v", err)
		}
	})

	if !strings.Contains(out, "knuth1984") {
		t.Errorf("expected header with key, got:\n%s", out)
	}
	if !strings.Contains(out, "The TeXbook") {
		t.Errorf("expected title value, got:\n%s", out)
	}
	if strings.Contains(out, "=key=") || strings.Contains(out, "=type=") {
		t.Errorf("pseudo-fields leaked into table:\n%s", out)
	}
}

func TestEntryUnknownKey(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), nil)

	err := entryCmd.RunE(entryCmd, []string{"ghost"})
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected the key in the message, got %q", err.Error())
	}
}
