package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pickOpenFlag bool

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively pick an entry with fzf",
	Long: `Pick runs the candidate list through fzf and prints the chosen citation
key. The match text includes the hidden search segment, so typing a key,
an availability marker like has-note, or a context tag narrows the list.

With --open the chosen entry's first openable resource is opened instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !canUseFZFInteractive() {
			return handleErrorMsg(ErrCodeInvalidInput,
				"interactive picking needs fzf and a terminal",
				interactivePickerHint("folio list --porcelain"))
		}

		s, err := openSession(false)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		candidates, err := s.index.Candidates(false)
		if err != nil {
			return handleIndexError(err)
		}
		if len(candidates) == 0 {
			return handleErrorMsg(ErrCodeKeyNotFound, "no entries to pick from",
				"Check the [sources] files in your config, or run 'folio refresh'")
		}

		key, ok, err := pickCandidateWithFZF(candidates, s.symbols, "entry> ")
		if err != nil {
			return handleError(ErrCodeInternal, err, "")
		}
		if !ok {
			return nil
		}

		if pickOpenFlag {
			resources, err := s.resolveResources(key)
			if err != nil {
				return handleIndexError(err)
			}
			return openResources(s, key, resources)
		}

		fmt.Println(key)
		return nil
	},
}

func init() {
	pickCmd.Flags().BoolVar(&pickOpenFlag, "open", false, "Open the chosen entry's first resource")
	rootCmd.AddCommand(pickCmd)
}
