package resolver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/folio-bib/folio/internal/shellquote"
	"github.com/folio-bib/folio/internal/urls"
)

// ViewerOpener launches the configured document viewer on file resources.
// The command runs through "sh -c" so it may carry its own flags; the
// launch is detached.
type ViewerOpener struct {
	Command string
}

// Name implements Opener.
func (ViewerOpener) Name() string { return "viewer" }

// Opens implements Opener.
func (o ViewerOpener) Opens(kind Kind) bool { return kind == KindFile && o.Command != "" }

// Open implements Opener.
func (o ViewerOpener) Open(res Resource) bool {
	cmd := exec.Command("sh", "-c", o.Command+" "+shellquote.Quote(res.Path))
	return cmd.Start() == nil
}

// SystemOpener hands files and URLs to the platform opener: "open" on
// macOS, "xdg-open" on Linux, "cmd /c start" on Windows.
type SystemOpener struct {
	Registry *urls.Registry
}

// Name implements Opener.
func (SystemOpener) Name() string { return "system" }

// Opens implements Opener.
func (SystemOpener) Opens(kind Kind) bool { return kind == KindFile || kind == KindURL }

// Open implements Opener.
func (o SystemOpener) Open(res Resource) bool {
	target := res.Path
	if res.Kind == KindURL {
		url, err := o.Registry.ToURL(res.Locator)
		if err != nil {
			return false
		}
		target = url
	}
	return systemOpen(target)
}

func systemOpen(target string) bool {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", target)
	default:
		return false
	}
	return cmd.Start() == nil
}

// EditorOpener launches the configured editor on note resources. Unlike
// the viewer, the editor runs attached to the terminal so full-screen
// editors work; terminal editors get a +line jump when the note is a
// heading inside a combined file.
type EditorOpener struct {
	Command string
}

// Name implements Opener.
func (EditorOpener) Name() string { return "editor" }

// Opens implements Opener.
func (o EditorOpener) Opens(kind Kind) bool { return kind == KindNote && o.Command != "" }

// Open implements Opener.
func (o EditorOpener) Open(res Resource) bool {
	cmd := exec.Command("sh", "-c", editorCommand(o.Command, res))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run() == nil
}

// editorCommand assembles the shell line for an editor launch.
func editorCommand(editor string, res Resource) string {
	line := editor + " " + shellquote.Quote(res.Path)
	if res.Line > 0 && supportsLineJump(editor) {
		line += fmt.Sprintf(" +%d", res.Line)
	}
	return line
}

// supportsLineJump reports whether the editor command understands a
// trailing +N line argument. Matched on the command's base name so
// "/usr/bin/nvim -p" still qualifies.
func supportsLineJump(editor string) bool {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return false
	}
	switch filepath.Base(fields[0]) {
	case "vi", "vim", "nvim", "emacs", "nano", "micro", "kak", "hx":
		return true
	}
	return false
}

// BrowserOpener launches the configured browser on URL resources, falling
// back to the platform opener when no command is configured.
type BrowserOpener struct {
	Command  string
	Registry *urls.Registry
}

// Name implements Opener.
func (BrowserOpener) Name() string { return "browser" }

// Opens implements Opener.
func (BrowserOpener) Opens(kind Kind) bool { return kind == KindURL }

// Open implements Opener.
func (o BrowserOpener) Open(res Resource) bool {
	url, err := o.Registry.ToURL(res.Locator)
	if err != nil {
		return false
	}
	if o.Command == "" {
		return systemOpen(url)
	}
	cmd := exec.Command("sh", "-c", o.Command+" "+shellquote.Quote(url))
	return cmd.Start() == nil
}
