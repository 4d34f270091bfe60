package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/record"
	"github.com/folio-bib/folio/internal/ui"
)

// entryJSON is the JSON projection of one record.
type entryJSON struct {
	Key    string            `json:"key"`
	Type   string            `json:"type,omitempty"`
	Fields map[string]string `json:"fields"`
}

var entryCmd = &cobra.Command{
	Use:               "entry <key>",
	Short:             "Show the full record for an entry",
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

		if isJSONOutput() {
			outputSuccess(entryJSON{
				Key:    rec.Key(),
				Type:   rec.Type(),
				Fields: plainFields(rec),
			}, nil)
			return nil
		}

		header := rec.Key()
		if rec.Type() != "" {
			header += "  " + ui.Muted.Render("("+rec.Type()+")")
		}
		fmt.Println(ui.Header(header))

		table := ui.NewTable()
		for _, name := range rec.Fields() {
			if name == record.FieldKey || name == record.FieldType {
				continue
			}
			table.AddRow(name, rec.Get(name))
		}
		fmt.Print(table.String())
		return nil
	},
}

// plainFields strips the pseudo-fields out of a record's map.
func plainFields(rec record.Record) map[string]string {
	out := rec.Map()
	delete(out, record.FieldKey)
	delete(out, record.FieldType)
	return out
}

func init() {
	rootCmd.AddCommand(entryCmd)
}
