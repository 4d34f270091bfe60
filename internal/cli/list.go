package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/ui"
)

var (
	listFilterFlag    string
	listRebuildFlag   bool
	listKeysFlag      bool
	listPorcelainFlag bool
)

// candidateJSON is the JSON projection of one candidate.
type candidateJSON struct {
	Key     string `json:"key"`
	Display string `json:"display"`
	Search  string `json:"search"`
	File    bool   `json:"file"`
	Note    bool   `json:"note"`
	Link    bool   `json:"link"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bibliography candidates",
	Long: `List renders every known entry as a candidate line: an availability
symbol column followed by the configured display template. Local entries
discovered under the context directory come first, then the global library.

--porcelain emits machine-readable "key<TAB>display<TAB>search" lines for
external pickers; the search column carries availability markers, the
context tag, the key, and any text truncated out of the display.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(false)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		candidates, err := s.index.Candidates(listRebuildFlag)
		if err != nil {
			return handleIndexError(err)
		}
		candidates = filterCandidates(candidates, listFilterFlag)

		if isJSONOutput() {
			out := make([]candidateJSON, 0, len(candidates))
			for _, c := range candidates {
				out = append(out, candidateJSON{
					Key:     c.Key,
					Display: c.Display,
					Search:  c.Search,
					File:    c.Avail.File,
					Note:    c.Avail.Note,
					Link:    c.Avail.Link,
				})
			}
			outputSuccess(out, &Meta{Count: len(out)})
			return nil
		}

		for _, c := range candidates {
			switch {
			case listPorcelainFlag:
				fmt.Printf("%s\t%s\t%s\n", c.Key, c.Display, c.Search)
			case listKeysFlag:
				fmt.Println(c.Key)
			default:
				fmt.Printf("%s %s\n", s.symbols.Prefix(c.Avail), c.Display)
			}
		}
		return nil
	},
}

// filterCandidates keeps candidates fuzzy-matching query against the visible
// line joined with the hidden search segment, best score first. An empty
// query keeps the original order.
func filterCandidates(candidates []index.Candidate, query string) []index.Candidate {
	query = strings.TrimSpace(query)
	if query == "" {
		return candidates
	}

	matcher := ui.NewMatcher(query)
	type scored struct {
		candidate index.Candidate
		score     int
	}
	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score, ok := matcher.Match(c.Display + " " + c.Search)
		if !ok {
			continue
		}
		kept = append(kept, scored{candidate: c, score: score})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	out := make([]index.Candidate, len(kept))
	for i, k := range kept {
		out[i] = k.candidate
	}
	return out
}

func init() {
	listCmd.Flags().StringVarP(&listFilterFlag, "filter", "f", "", "Fuzzy-filter candidates")
	listCmd.Flags().BoolVar(&listRebuildFlag, "rebuild", false, "Rebuild the caches before listing")
	listCmd.Flags().BoolVar(&listKeysFlag, "keys", false, "Print citation keys only")
	listCmd.Flags().BoolVar(&listPorcelainFlag, "porcelain", false, "Tab-separated key/display/search lines for scripts")
	rootCmd.AddCommand(listCmd)
}
