package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/ui"
)

var (
	refreshScopeFlag  string
	refreshExportFlag bool
)

// refreshScopeJSON reports one rebuilt cache slot.
type refreshScopeJSON struct {
	Scope      string `json:"scope"`
	Files      int    `json:"files"`
	Candidates int    `json:"candidates"`
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the candidate caches",
	Long: `Refresh re-reads the bibliography files and rebuilds the candidate
caches: the global library, the context's local bibliographies, or both.

With --export the configured hook command (for example a reference-manager
export) runs first; a failing hook aborts the refresh and leaves the caches
untouched. Stale parse-cache rows for files no longer referenced are pruned
afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := index.ParseScope(refreshScopeFlag)
		if err != nil {
			return handleError(ErrCodeInvalidInput, err, "Valid scopes: global, local, both")
		}

		s, err := openSession(false)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		var spin *ui.Spinner
		if !isJSONOutput() {
			spin = ui.NewSpinner("Refreshing bibliographies...")
			spin.Start()
		}
		err = s.index.Refresh(scope, refreshExportFlag)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			return handleIndexError(err)
		}

		if s.store != nil {
			if err := s.store.Prune(s.index.SourcePaths()); err != nil && !isJSONOutput() {
				fmt.Fprintln(os.Stderr, ui.Warningf("prune parse cache: %v", err))
			}
		}

		global, local := s.index.Stats()
		scopes := make([]refreshScopeJSON, 0, 2)
		if global.Loaded {
			scopes = append(scopes, refreshScopeJSON{Scope: "global", Files: global.Files, Candidates: global.Candidates})
		}
		if local.Loaded {
			scopes = append(scopes, refreshScopeJSON{Scope: "local", Files: local.Files, Candidates: local.Candidates})
		}

		if isJSONOutput() {
			outputSuccess(scopes, nil)
			return nil
		}

		fmt.Println(ui.Success("refreshed"))
		for _, sc := range scopes {
			fmt.Printf("  %s: %s from %s\n", sc.Scope,
				ui.Count(sc.Candidates, "candidate", "candidates"),
				ui.Count(sc.Files, "file", "files"))
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshScopeFlag, "scope", "", "Cache to rebuild: global, local, or both (default both)")
	refreshCmd.Flags().BoolVar(&refreshExportFlag, "export", false, "Run the configured export hook first")
	rootCmd.AddCommand(refreshCmd)
}
