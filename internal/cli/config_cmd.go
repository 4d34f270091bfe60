package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/config"
	"github.com/folio-bib/folio/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage folio configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolvePath(configFlag)
		_, err := os.Stat(path)
		exists := err == nil

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path, "exists": exists}, nil)
			return nil
		}
		fmt.Println(path)
		if !exists {
			fmt.Println(ui.Hint("Not created yet. Run 'folio config init'"))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented starter config if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := config.ResolvePath(configFlag)
		_, statErr := os.Stat(target)
		existed := statErr == nil

		path, err := config.CreateDefault(target)
		if err != nil {
			return handleError(ErrCodeInvalidInput, err,
				"Pass --config to write somewhere else")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"path":    path,
				"created": !existed,
			}, nil)
			return nil
		}
		if existed {
			fmt.Printf("Config already exists: %s\n", path)
			return nil
		}
		fmt.Println(ui.Successf("created %s", path))
		fmt.Println(ui.Hint("Add your .bib files under [sources], then run 'folio list'"))
		return nil
	},
}

// configShowJSON is the resolved effective configuration.
type configShowJSON struct {
	Path        string   `json:"path"`
	Sources     []string `json:"sources"`
	LibraryDirs []string `json:"library_dirs,omitempty"`
	Extensions  []string `json:"library_extensions"`
	FileField   string   `json:"file_field"`
	NotesDir    string   `json:"notes_dir,omitempty"`
	NotesFile   string   `json:"notes_file,omitempty"`
	Main        string   `json:"main_template"`
	Suffix      string   `json:"suffix_template,omitempty"`
	Margin      int      `json:"margin"`
	Finders     []string `json:"finders"`
	Openers     []string `json:"openers"`
	LinkFields  []string `json:"link_fields"`
	Identifiers []string `json:"identifiers"`
	Editor      string   `json:"editor,omitempty"`
	Viewer      string   `json:"viewer,omitempty"`
	Browser     string   `json:"browser,omitempty"`
	ExportHook  string   `json:"export_hook,omitempty"`
	HookTimeout string   `json:"hook_timeout"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		registry, err := cfg.Registry()
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		timeout, err := cfg.HookTimeout()
		if err != nil {
			return handleError(ErrCodeConfig, err, "")
		}
		notesCfg := cfg.NotesConfig()

		main := cfg.Display.Main
		if main == "" {
			main = config.DefaultMainTemplate
		}

		show := configShowJSON{
			Path:        getConfigPath(),
			Sources:     cfg.SourceFiles(),
			LibraryDirs: cfg.LibraryDirs(),
			Extensions:  cfg.LibraryExtensions(),
			FileField:   cfg.FileField(),
			NotesDir:    notesCfg.Dir,
			NotesFile:   notesCfg.File,
			Main:        main,
			Suffix:      cfg.Display.Suffix,
			Margin:      cfg.Margin(),
			Finders:     cfg.Finders(),
			Openers:     cfg.Openers(),
			LinkFields:  cfg.LinkFields(),
			Identifiers: registry.Types(),
			Editor:      cfg.Editor(),
			Viewer:      cfg.Tools.Viewer,
			Browser:     cfg.Tools.Browser,
			ExportHook:  cfg.Hook.Export,
			HookTimeout: timeout.String(),
		}

		if isJSONOutput() {
			outputSuccess(show, nil)
			return nil
		}

		table := ui.NewTable()
		table.AddRow("config", show.Path)
		table.AddRow("sources", strings.Join(show.Sources, ", "))
		table.AddRow("library dirs", strings.Join(show.LibraryDirs, ", "))
		table.AddRow("extensions", strings.Join(show.Extensions, ", "))
		table.AddRow("file field", show.FileField)
		table.AddRow("notes dir", show.NotesDir)
		table.AddRow("notes file", show.NotesFile)
		table.AddRow("main template", show.Main)
		table.AddRow("suffix template", show.Suffix)
		table.AddRow("margin", fmt.Sprintf("%d", show.Margin))
		table.AddRow("finders", strings.Join(show.Finders, ", "))
		table.AddRow("openers", strings.Join(show.Openers, ", "))
		table.AddRow("link fields", strings.Join(show.LinkFields, ", "))
		table.AddRow("identifiers", strings.Join(show.Identifiers, ", "))
		table.AddRow("editor", show.Editor)
		table.AddRow("viewer", show.Viewer)
		table.AddRow("browser", show.Browser)
		table.AddRow("export hook", show.ExportHook)
		table.AddRow("hook timeout", show.HookTimeout)
		fmt.Print(table.String())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
