package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/resolver"
	"github.com/folio-bib/folio/internal/ui"
)

var (
	openKindFlag string
	openPickFlag int
)

var openCmd = &cobra.Command{
	Use:   "open <key>",
	Short: "Open a resource for an entry",
	Long: `Open resolves the entry's resources (library documents, file-field
attachments, notes, links) and opens the first one an opener accepts.

--kind restricts resolution to one resource kind (file, note, url).
--pick opens the Nth resource, using the numbering of 'folio resources'.`,
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

		if openKindFlag != "" {
			kind, err := resolver.ParseKind(openKindFlag)
			if err != nil {
				return handleError(ErrCodeInvalidInput, err, "Valid kinds: file, note, url")
			}
			resources = filterByKind(resources, kind)
		}
		if openPickFlag > 0 {
			if openPickFlag > len(resources) {
				return handleErrorMsg(ErrCodeInvalidInput,
					fmt.Sprintf("%s has %d resources, cannot pick #%d", key, len(resources), openPickFlag),
					fmt.Sprintf("Run 'folio resources %s'", key))
			}
			resources = resources[openPickFlag-1 : openPickFlag]
		}

		return openResources(s, key, resources)
	},
}

// openResources tries resources in order until one opener accepts. An
// exhausted list is the explicit unopenable outcome, not an internal fault.
func openResources(s *session, key string, resources []resolver.Resource) error {
	for _, res := range resources {
		if !s.resolver.Open(res) {
			continue
		}
		if isJSONOutput() {
			outputSuccess(resourceToJSON(s, res), nil)
		} else {
			fmt.Println(ui.Successf("opened %s", res.Display))
		}
		return nil
	}
	return handleErrorMsg(ErrCodeUnopenable,
		fmt.Sprintf("nothing openable for %s", key),
		fmt.Sprintf("Run 'folio resources %s' to see what was found, and check [tools] in your config", key))
}

func filterByKind(resources []resolver.Resource, kind resolver.Kind) []resolver.Resource {
	out := make([]resolver.Resource, 0, len(resources))
	for _, res := range resources {
		if res.Kind == kind {
			out = append(out, res)
		}
	}
	return out
}

func init() {
	openCmd.Flags().StringVarP(&openKindFlag, "kind", "k", "", "Only consider resources of this kind (file, note, url)")
	openCmd.Flags().IntVarP(&openPickFlag, "pick", "p", 0, "Open the Nth resource instead of the first openable one")
	rootCmd.AddCommand(openCmd)
}
