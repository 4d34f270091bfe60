package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/notes"
	"github.com/folio-bib/folio/internal/resolver"
	"github.com/folio-bib/folio/internal/ui"
)

var (
	noteCreateFlag bool
	noteShowFlag   bool
)

// noteJSON is the JSON projection of a located note.
type noteJSON struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Heading string `json:"heading,omitempty"`
	Created bool   `json:"created,omitempty"`
}

var noteCmd = &cobra.Command{
	Use:   "note <key>",
	Short: "Open, create, or show the note for an entry",
	Long: `Note locates the entry's reading note (a standalone file named or
frontmatter-tagged with the key, or a heading in the combined notes file)
and opens it in your editor.

--create writes a fresh note from the configured skeleton; --show renders
the note to the terminal instead of opening an editor. In JSON mode the
note's location is reported and no editor is launched.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		s, err := openSession(true)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		rec, err := s.index.Entry(key)
		if err != nil {
			return handleIndexError(err)
		}

		if noteCreateFlag {
			path, err := s.notes.Create(key, rec)
			if err != nil {
				if errors.Is(err, notes.ErrExists) {
					return handleError(ErrCodeInvalidInput, err,
						fmt.Sprintf("Run 'folio note %s' to open the existing note", key))
				}
				return handleError(ErrCodeConfig, err,
					"Set notes.dir in your config to enable note creation")
			}
			if isJSONOutput() {
				outputSuccess(noteJSON{Path: path, Created: true}, nil)
				return nil
			}
			fmt.Println(ui.Successf("created %s", path))
			return openNoteInEditor(s, key, notes.Ref{Path: path})
		}

		ref, ok, err := s.notes.Resolve(key)
		if err != nil {
			return handleError(ErrCodeInternal, err, "")
		}
		if !ok {
			return handleErrorMsg(ErrCodeKeyNotFound,
				fmt.Sprintf("no note for %s", key),
				fmt.Sprintf("Run 'folio note %s --create' to start one", key))
		}

		if noteShowFlag {
			return showNote(ref)
		}
		if isJSONOutput() {
			outputSuccess(noteJSON{Path: ref.Path, Line: ref.Line, Heading: ref.Heading}, nil)
			return nil
		}
		return openNoteInEditor(s, key, ref)
	},
}

// openNoteInEditor hands the note to the opener chain as a note resource.
func openNoteInEditor(s *session, key string, ref notes.Ref) error {
	res := resolver.Resource{Kind: resolver.KindNote, Display: ref.Path, Path: ref.Path, Line: ref.Line}
	if s.resolver.Open(res) {
		return nil
	}
	return handleErrorMsg(ErrCodeUnopenable,
		fmt.Sprintf("could not open %s in an editor", ref.Path),
		"Set tools.editor in your config or export EDITOR")
}

// showNote renders the note to the terminal. A combined-file note is cut
// down to its heading's section first.
func showNote(ref notes.Ref) error {
	content, err := os.ReadFile(ref.Path)
	if err != nil {
		return handleError(ErrCodeInternal, err, "")
	}
	text := string(content)
	if ref.Line > 0 {
		text = noteSection(text, ref.Line)
	}

	if isJSONOutput() {
		outputSuccess(map[string]string{"path": ref.Path, "content": text}, nil)
		return nil
	}

	disp := ui.NewDisplayContext()
	if disp.IsTTY {
		if rendered, err := ui.RenderMarkdown(text, disp.TermWidth); err == nil {
			fmt.Print(rendered)
			return nil
		}
	}
	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
	return nil
}

// noteSection cuts one heading's section out of a combined notes file: the
// heading line through the line before the next heading of the same or
// higher level.
func noteSection(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return content
	}
	level := headingLevel(lines[line-1])
	if level == 0 {
		return content
	}
	end := len(lines)
	for i := line; i < len(lines); i++ {
		if l := headingLevel(lines[i]); l > 0 && l <= level {
			end = i
			break
		}
	}
	return strings.Join(lines[line-1:end], "\n")
}

func headingLevel(line string) int {
	rest := strings.TrimLeft(line, "#")
	hashes := len(line) - len(rest)
	if hashes == 0 || !strings.HasPrefix(rest, " ") {
		return 0
	}
	return hashes
}

func init() {
	noteCmd.Flags().BoolVar(&noteCreateFlag, "create", false, "Create the note from the skeleton template")
	noteCmd.Flags().BoolVar(&noteShowFlag, "show", false, "Render the note instead of opening an editor")
	rootCmd.AddCommand(noteCmd)
}
