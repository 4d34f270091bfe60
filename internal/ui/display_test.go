package ui

import "testing"

func TestNewDisplayContextHonorsColumnsWithoutTTY(t *testing.T) {
	t.Setenv("COLUMNS", "87")
	d := NewDisplayContext()
	if d.IsTTY {
		t.Skip("stdout is a terminal")
	}
	if d.TermWidth != 87 {
		t.Errorf("TermWidth = %d, want 87", d.TermWidth)
	}
}

func TestNewDisplayContextIgnoresBadColumns(t *testing.T) {
	t.Setenv("COLUMNS", "wide")
	d := NewDisplayContext()
	if d.IsTTY {
		t.Skip("stdout is a terminal")
	}
	if d.TermWidth != DefaultTermWidth {
		t.Errorf("TermWidth = %d, want %d", d.TermWidth, DefaultTermWidth)
	}
}
