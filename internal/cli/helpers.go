package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio-bib/folio/internal/bib"
	"github.com/folio-bib/folio/internal/config"
	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/notes"
	"github.com/folio-bib/folio/internal/resolver"
	"github.com/folio-bib/folio/internal/store"
	"github.com/folio-bib/folio/internal/template"
	"github.com/folio-bib/folio/internal/ui"
	"github.com/folio-bib/folio/internal/urls"
)

// session wires the candidate index and resource resolver from the loaded
// config for one command invocation. Close releases the parse cache.
type session struct {
	cfg      *config.Config
	index    *index.Index
	resolver *resolver.Resolver
	symbols  index.Symbols
	notes    notes.Config
	source   bib.Source   // record loader, cache-backed when available
	store    *store.Store // nil when the parse cache is unavailable
}

// Close releases the session's resources.
func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// openSession assembles the index and resolver for the current config and
// context directory. allFields loads complete records instead of the
// display/link field subset; entry inspection and note skeletons need
// every field.
func openSession(allFields bool) (*session, error) {
	cfg := getConfig()

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	mainTpl, err := cfg.MainTemplate()
	if err != nil {
		return nil, err
	}
	suffixTpl, err := cfg.SuffixTemplate()
	if err != nil {
		return nil, err
	}
	recognition, err := cfg.RecognitionPolicy()
	if err != nil {
		return nil, err
	}
	normalization, err := cfg.NormalizationPolicy()
	if err != nil {
		return nil, err
	}
	hookTimeout, err := cfg.HookTimeout()
	if err != nil {
		return nil, err
	}

	notesCfg := cfg.NotesConfig()
	if err := notesCfg.Validate(); err != nil {
		return nil, fmt.Errorf("notes: %w", err)
	}

	res := resolver.New(registry,
		buildFinders(cfg, registry, notesCfg, recognition, normalization),
		buildOpeners(cfg, registry))

	var fields []string
	if !allFields {
		fields = requestedFields(cfg, mainTpl, suffixTpl)
	}

	symbols := cfg.Symbols()
	suffixWidth := 0
	if suffixTpl != nil {
		suffixWidth = suffixTpl.Width()
	}
	disp := ui.NewDisplayContext()
	star := index.StarWidth(disp.TermWidth, symbols.Width(), mainTpl.Width(), suffixWidth, cfg.Margin())

	s := &session{cfg: cfg, resolver: res, symbols: symbols, notes: notesCfg}

	var source bib.Source = bib.FileSource{}
	if dir, err := cacheDir(); err == nil {
		st, err := store.Open(dir)
		if err == nil {
			s.store = st
			source = store.CachingSource{Store: st, Source: bib.FileSource{}}
		} else if !isJSONOutput() {
			fmt.Fprintln(os.Stderr, ui.Warningf("parse cache unavailable: %v", err))
		}
	}
	s.source = source

	var hook func() error
	if command := strings.TrimSpace(cfg.Hook.Export); command != "" {
		hook = func() error {
			result, err := runExportHook(command, hookTimeout)
			if err != nil {
				return exportHookError(result, err)
			}
			return nil
		}
	}

	s.index = index.New(index.Options{
		Source:        source,
		GlobalSources: cfg.SourceFiles(),
		ContextDir:    getContextDir(),
		ContextTag:    contextTag(getContextDir()),
		Fields:        fields,
		Engine:        cfg.Engine(),
		Main:          mainTpl,
		Suffix:        suffixTpl,
		StarWidth:     star,
		Probe:         res.Availability,
		ExportHook:    hook,
	})
	return s, nil
}

// resolveResources loads the record for key and runs the finder chain,
// returning the deduplicated resource list.
func (s *session) resolveResources(key string) ([]resolver.Resource, error) {
	rec, err := s.index.Entry(key)
	if err != nil {
		return nil, err
	}
	return s.resolver.Dedup(s.resolver.Resolve(key, rec)), nil
}

// buildFinders instantiates the configured finder chain in order. Unknown
// names were already rejected by config validation.
func buildFinders(cfg *config.Config, registry *urls.Registry, notesCfg notes.Config, recognition, normalization urls.Policy) []resolver.Finder {
	var out []resolver.Finder
	for _, name := range cfg.Finders() {
		switch name {
		case "library":
			out = append(out, resolver.LibraryFinder{Dirs: cfg.LibraryDirs(), Exts: cfg.LibraryExtensions()})
		case "file-field":
			out = append(out, resolver.FileFieldFinder{Field: cfg.FileField(), Dirs: cfg.LibraryDirs()})
		case "notes":
			out = append(out, resolver.NoteFinder{Notes: notesCfg})
		case "links":
			out = append(out, resolver.LinkFinder{
				Registry:      registry,
				Fields:        cfg.LinkFields(),
				Recognition:   recognition,
				Normalization: normalization,
			})
		}
	}
	return out
}

// buildOpeners instantiates the configured opener chain in order.
func buildOpeners(cfg *config.Config, registry *urls.Registry) []resolver.Opener {
	var out []resolver.Opener
	for _, name := range cfg.Openers() {
		switch name {
		case "viewer":
			out = append(out, resolver.ViewerOpener{Command: cfg.Tools.Viewer})
		case "system":
			out = append(out, resolver.SystemOpener{Registry: registry})
		case "editor":
			out = append(out, resolver.EditorOpener{Command: cfg.Editor()})
		case "browser":
			out = append(out, resolver.BrowserOpener{Command: cfg.Tools.Browser, Registry: registry})
		}
	}
	return out
}

// requestedFields is the union of every field the display templates and
// resource finders read. Loading only these keeps cached records small.
func requestedFields(cfg *config.Config, main, suffix *template.Template) []string {
	set := make(map[string]bool)
	add := func(names ...string) {
		for _, name := range names {
			if name != "" {
				set[strings.ToLower(name)] = true
			}
		}
	}
	add(main.Fields()...)
	if suffix != nil {
		add(suffix.Fields()...)
	}
	add(cfg.LinkFields()...)
	add(cfg.FileField())
	add(cfg.Sources.Fields...)
	if set["eprint"] {
		// The link finder types eprints through these companion fields.
		add("eprinttype", "archiveprefix")
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// contextTag derives the searchable tag added to local candidates from the
// context directory's name.
func contextTag(dir string) string {
	base := filepath.Base(dir)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return ""
	}
	return "local:" + base
}

// cacheDir returns the parse-cache directory.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "folio"), nil
}

// handleIndexError maps index and hook errors onto their stable codes.
func handleIndexError(err error) error {
	switch {
	case errors.Is(err, index.ErrNotConfigured):
		return handleError(ErrCodeNotConfigured, err,
			"Add bibliography files under [sources] in your config, or run folio from a directory containing .bib files")
	case errors.Is(err, index.ErrKeyNotFound):
		return handleError(ErrCodeKeyNotFound, err,
			"Run 'folio list --keys' to see every known key")
	case errors.Is(err, errHookFailed):
		return handleError(ErrCodeHookFailed, err, "")
	default:
		return handleError(ErrCodeParse, err, "")
	}
}

// completeKeys offers citation keys for a command's first positional
// argument. Completion failures degrade to no suggestions.
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := openSession(false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer s.Close()

	candidates, err := s.index.Candidates(false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c.Key, toComplete) {
			out = append(out, c.Key)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
