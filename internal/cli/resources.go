package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/resolver"
	"github.com/folio-bib/folio/internal/ui"
)

// resourceJSON is the JSON projection of one resolved resource.
type resourceJSON struct {
	Kind    string `json:"kind"`
	Display string `json:"display"`
	Target  string `json:"target"`
	Line    int    `json:"line,omitempty"`
}

func resourceToJSON(s *session, res resolver.Resource) resourceJSON {
	target, err := s.resolver.Target(res)
	if err != nil {
		target = res.Display
	}
	return resourceJSON{
		Kind:    res.Kind.String(),
		Display: res.Display,
		Target:  target,
		Line:    res.Line,
	}
}

var resourcesCmd = &cobra.Command{
	Use:   "resources <key>",
	Short: "List the openable resources of an entry",
	Long: `Resources runs the finder chain for one entry and prints every distinct
resource it produced, numbered for use with 'folio open --pick'. Duplicates
(the same document found twice, equivalent forms of the same link) are
already collapsed.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		s, err := openSession(false)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		resources, err := s.resolveResources(key)
		if err != nil {
			return handleIndexError(err)
		}

		if isJSONOutput() {
			out := make([]resourceJSON, 0, len(resources))
			for _, res := range resources {
				out = append(out, resourceToJSON(s, res))
			}
			outputSuccess(out, &Meta{Count: len(out)})
			return nil
		}

		if len(resources) == 0 {
			fmt.Println(ui.Infof("no resources for %s", key))
			return nil
		}

		fmt.Println(ui.Header(key))
		for i, res := range resources {
			target, err := s.resolver.Target(res)
			if err != nil {
				target = res.Display
			}
			fmt.Printf("  %s  %-4s  %s\n", ui.LineNum(i+1), res.Kind, target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}
