package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/check"
	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/paths"
	"github.com/folio-bib/folio/internal/resolver"
	"github.com/folio-bib/folio/internal/ui"
)

var checkStrictFlag bool

// errCheckFound makes the process exit nonzero on findings without Cobra
// printing anything; the summary or JSON envelope already did.
var errCheckFound = errors.New("check found issues")

type checkIssueJSON struct {
	Level   string `json:"level"`
	File    string `json:"file"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

type checkReportJSON struct {
	Files    int              `json:"files"`
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Issues   []checkIssueJSON `json:"issues"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the bibliography and its companion files",
	Long: `Check parses every source and reports inconsistencies: duplicate keys,
entries missing their type's conventional fields, attached files that do
not exist, and library documents or notes that no entry claims.

Errors exit nonzero; with --strict, warnings do too.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(true)
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		defer s.Close()

		cfg := getConfig()
		globals := cfg.SourceFiles()
		locals, err := index.Discover(getContextDir())
		if err != nil {
			return handleError(ErrCodeInternal, err, "")
		}
		locals = paths.Subtract(locals, globals)

		sources := make([]string, 0, len(locals)+len(globals))
		sources = append(sources, locals...)
		sources = append(sources, globals...)
		if len(sources) == 0 {
			return handleErrorMsg(ErrCodeNotConfigured, "no bibliography sources configured",
				"Add bibliography files under [sources] in your config, or run folio from a directory containing .bib files")
		}

		report := check.Run(check.Options{
			Source:    s.source,
			Sources:   sources,
			Library:   resolver.LibraryFinder{Dirs: cfg.LibraryDirs(), Exts: cfg.LibraryExtensions()},
			FileField: resolver.FileFieldFinder{Field: cfg.FileField(), Dirs: cfg.LibraryDirs()},
			Notes:     s.notes,
		})

		failed := report.Errors() > 0 || (checkStrictFlag && report.Warnings() > 0)

		if isJSONOutput() {
			issues := make([]checkIssueJSON, 0, len(report.Issues))
			for _, issue := range report.Issues {
				issues = append(issues, checkIssueJSON{
					Level:   issue.Level.String(),
					File:    issue.File,
					Key:     issue.Key,
					Message: issue.Message,
				})
			}
			outputSuccess(checkReportJSON{
				Files:    report.Files,
				Errors:   report.Errors(),
				Warnings: report.Warnings(),
				Issues:   issues,
			}, &Meta{Count: len(issues)})
			if failed {
				return errCheckFound
			}
			return nil
		}

		for _, issue := range report.Issues {
			label := ui.Warning("WARN ")
			if issue.Level == check.LevelError {
				label = ui.Error("ERROR")
			}
			location := issue.File
			if issue.Key != "" {
				location += " (" + issue.Key + ")"
			}
			fmt.Printf("%s  %s - %s\n", label, location, issue.Message)
		}

		if len(report.Issues) == 0 {
			fmt.Println(ui.Successf("no issues in %d source files", report.Files))
			return nil
		}
		fmt.Println()
		fmt.Printf("Found %d error(s), %d warning(s) in %d source files.\n",
			report.Errors(), report.Warnings(), report.Files)
		if failed {
			return errCheckFound
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrictFlag, "strict", false, "Treat warnings as errors")
	rootCmd.AddCommand(checkCmd)
}
