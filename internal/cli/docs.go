package cli

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/docs"
	"github.com/folio-bib/folio/internal/ui"
)

// docTopic is one embedded guide page.
type docTopic struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Browse the built-in guides",
	Args:  cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		topics, err := docTopics()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		out := make([]string, 0, len(topics))
		for _, t := range topics {
			if strings.HasPrefix(t.Slug, toComplete) {
				out = append(out, t.Slug)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listDocTopics()
		}
		return showDocTopic(args[0])
	},
}

func docTopics() ([]docTopic, error) {
	entries, err := fs.ReadDir(docs.FS, ".")
	if err != nil {
		return nil, err
	}

	topics := make([]docTopic, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		slug := strings.TrimSuffix(name, ".md")
		title := titleFromSlug(slug)
		if content, err := fs.ReadFile(docs.FS, name); err == nil {
			if t := extractDocTitle(content); t != "" {
				title = t
			}
		}
		topics = append(topics, docTopic{Slug: slug, Title: title})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Slug < topics[j].Slug })
	return topics, nil
}

// extractDocTitle returns the first level-one heading.
func extractDocTitle(content []byte) string {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func titleFromSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func listDocTopics() error {
	topics, err := docTopics()
	if err != nil {
		return handleError(ErrCodeInternal, err, "")
	}

	if isJSONOutput() {
		outputSuccess(topics, &Meta{Count: len(topics)})
		return nil
	}

	fmt.Println(ui.Header("Guides"))
	for _, t := range topics {
		fmt.Printf("  %s  %s\n", ui.Key(t.Slug), ui.Muted.Render(t.Title))
	}
	fmt.Println()
	fmt.Println(ui.Hint("folio docs <topic>"))
	return nil
}

func showDocTopic(slug string) error {
	content, err := fs.ReadFile(docs.FS, slug+".md")
	if err != nil {
		return handleErrorMsg(ErrCodeInvalidInput,
			fmt.Sprintf("unknown topic %q", slug),
			"Run 'folio docs' to list the topics")
	}

	if isJSONOutput() {
		outputSuccess(map[string]string{"slug": slug, "content": string(content)}, nil)
		return nil
	}

	disp := ui.NewDisplayContext()
	if disp.IsTTY {
		if rendered, err := ui.RenderMarkdown(string(content), disp.TermWidth); err == nil {
			fmt.Print(rendered)
			return nil
		}
	}
	fmt.Print(string(content))
	return nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
