package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// scanCombined finds the heading for key inside the combined notes file.
// A heading matches by explicit {#key} attribute or by a [@key] citation in
// its text.
func scanCombined(path, key string) (Ref, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Ref{}, false, nil
		}
		return Ref{}, false, fmt.Errorf("read notes file: %w", err)
	}

	md := goldmark.New(goldmark.WithParserOptions(parser.WithAttribute()))
	doc := md.Parser().Parse(text.NewReader(content))
	lineStarts := computeLineStarts(content)

	var found Ref
	matched := false
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || matched {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		headingText := textOf(heading, content)
		if !headingMatches(heading, headingText, key) {
			return ast.WalkContinue, nil
		}
		line := 1
		if heading.Lines().Len() > 0 {
			line = offsetToLine(lineStarts, heading.Lines().At(0).Start) + 1
		}
		found = Ref{Path: path, Line: line, Heading: headingText}
		matched = true
		return ast.WalkStop, nil
	})
	return found, matched, nil
}

func headingMatches(heading *ast.Heading, headingText, key string) bool {
	if id, ok := heading.AttributeString("id"); ok {
		if b, isBytes := id.([]byte); isBytes && string(b) == key {
			return true
		}
	}
	return strings.Contains(headingText, "[@"+key+"]")
}

func textOf(heading *ast.Heading, content []byte) string {
	var b strings.Builder
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(content))
		}
	}
	return strings.TrimSpace(b.String())
}

// computeLineStarts computes the byte offset of each line start.
func computeLineStarts(content []byte) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetToLine converts a byte offset to a 0-indexed line number.
func offsetToLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}

// scanFrontmatter finds a standalone note whose YAML frontmatter names key.
func scanFrontmatter(dir, ext, key string) (Ref, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Ref{}, false, nil
		}
		return Ref{}, false, fmt.Errorf("read notes directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		k, err := frontmatterKey(path)
		if err != nil {
			continue // a broken unrelated note must not block resolution
		}
		if k == key {
			return Ref{Path: path}, true, nil
		}
	}
	return Ref{}, false, nil
}

func frontmatterKey(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fm, ok := extractFrontmatter(string(content))
	if !ok {
		return "", nil
	}
	var meta struct {
		Key string `yaml:"key"`
	}
	if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
		return "", fmt.Errorf("parse frontmatter of %s: %w", path, err)
	}
	return meta.Key, nil
}

// extractFrontmatter returns the YAML block between leading --- fences.
func extractFrontmatter(content string) (string, bool) {
	if !strings.HasPrefix(content, "---\n") {
		return "", false
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
