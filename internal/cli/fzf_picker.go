package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/ui"
)

var (
	fzfLookPath         = exec.LookPath
	fzfStdinIsTerminal  = func() bool { return isatty.IsTerminal(os.Stdin.Fd()) }
	fzfStdoutIsTerminal = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }
)

type fzfPickerOptions struct {
	Prompt    string
	Header    string
	Delimiter string
	WithNth   string
	ANSI      bool
}

func hasFZFInstalled() bool {
	_, err := fzfLookPath("fzf")
	return err == nil
}

func canUseFZFInteractive() bool {
	if isJSONOutput() {
		return false
	}
	if !fzfStdinIsTerminal() || !fzfStdoutIsTerminal() {
		return false
	}
	return hasFZFInstalled()
}

func runFZFPicker(lines []string, opts fzfPickerOptions) (string, bool, error) {
	if len(lines) == 0 {
		return "", false, nil
	}

	args := []string{
		"--layout=reverse",
		"--height=80%",
		"--border",
		"--select-1",
		"--exit-0",
	}
	if opts.ANSI {
		args = append(args, "--ansi")
	}
	if strings.TrimSpace(opts.Prompt) != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	if strings.TrimSpace(opts.Header) != "" {
		args = append(args, "--header", opts.Header)
	}
	if strings.TrimSpace(opts.Delimiter) != "" {
		args = append(args, "--delimiter", opts.Delimiter)
	}
	if strings.TrimSpace(opts.WithNth) != "" {
		args = append(args, "--with-nth", opts.WithNth)
	}

	cmd := exec.Command("fzf", args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code == 1 || code == 130 {
				return "", false, nil
			}
		}
		return "", false, fmt.Errorf("run fzf selector: %w", err)
	}

	selection := strings.TrimSpace(stdout.String())
	if selection == "" {
		return "", false, nil
	}
	return selection, true, nil
}

// pickCandidateWithFZF puts the candidate list through fzf. Each line is
// "key TAB visible TAB search"; --with-nth drops the key column from the
// presentation while the dimmed search segment stays in the match text, so
// typing a key or an availability marker still narrows the list.
func pickCandidateWithFZF(candidates []index.Candidate, symbols index.Symbols, prompt string) (string, bool, error) {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		visible := symbols.Prefix(c.Avail) + " " + c.Display
		lines = append(lines, c.Key+"\t"+visible+"\t"+ui.Muted.Render(c.Search))
	}

	selection, ok, err := runFZFPicker(lines, fzfPickerOptions{
		Prompt:    prompt,
		Delimiter: "\t",
		WithNth:   "2..",
		ANSI:      true,
	})
	if err != nil || !ok {
		return "", ok, err
	}

	key, _, _ := strings.Cut(selection, "\t")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, nil
	}
	return key, true, nil
}

// interactivePickerHint names the non-interactive fallback, with an install
// pointer when fzf itself is missing.
func interactivePickerHint(usage string) string {
	if hasFZFInstalled() {
		return fmt.Sprintf("Run '%s'", usage)
	}
	return fmt.Sprintf("Install fzf to enable interactive selection, or run '%s'", usage)
}
