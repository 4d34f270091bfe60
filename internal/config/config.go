// Package config handles global folio configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/folio-bib/folio/internal/index"
	"github.com/folio-bib/folio/internal/notes"
	"github.com/folio-bib/folio/internal/paths"
	"github.com/folio-bib/folio/internal/template"
	"github.com/folio-bib/folio/internal/urls"
)

// Config represents the global folio configuration.
type Config struct {
	// Sources lists the global bibliography files.
	Sources SourcesConfig `toml:"sources"`

	// Library says where attached documents live.
	Library LibraryConfig `toml:"library"`

	// Notes says where reading notes live.
	Notes NotesConfig `toml:"notes"`

	// Display controls candidate rendering.
	Display DisplayConfig `toml:"display"`

	// Resolve orders the finder and opener chains.
	Resolve ResolveConfig `toml:"resolve"`

	// URLs extends or overrides the URL identifier table.
	URLs URLsConfig `toml:"urls"`

	// Hook configures the pre-refresh export command.
	Hook HookConfig `toml:"hook"`

	// Tools names the external programs used to open resources.
	Tools ToolsConfig `toml:"tools"`
}

// SourcesConfig lists global bibliography files and extra fields to load.
type SourcesConfig struct {
	// Files are the global bibliography files, in lookup order.
	Files []string `toml:"files"`

	// Fields are extra field names to load beyond what templates and
	// finders already need.
	Fields []string `toml:"fields"`
}

// LibraryConfig says where attached documents live.
type LibraryConfig struct {
	// Dirs are the document directories searched for <key><ext> files.
	Dirs []string `toml:"dirs"`

	// Extensions are the document extensions tried per directory
	// (defaults to .pdf).
	Extensions []string `toml:"extensions"`

	// FileField is the record field holding attached file paths
	// (defaults to "file", the Zotero/JabRef convention).
	FileField string `toml:"file_field"`
}

// NotesConfig says where reading notes live.
type NotesConfig struct {
	// Dir holds one note file per key, named by the slugged key.
	Dir string `toml:"dir"`

	// File is a combined notes file searched by heading.
	File string `toml:"file"`

	// Extension is the note file extension (defaults to .md).
	Extension string `toml:"extension"`

	// Template is the skeleton for created notes. {{key}}, {{title}},
	// {{author}}, {{year}} and {{date}} are substituted.
	Template string `toml:"template"`
}

// DisplayConfig controls candidate rendering.
type DisplayConfig struct {
	// Main is the main display template.
	Main string `toml:"main"`

	// Suffix is an optional template appended after the main one.
	Suffix string `toml:"suffix"`

	// Margin is the column count reserved beyond the rendered line,
	// covering the picker gutter (defaults to 2).
	Margin *int `toml:"margin"`

	// ShortenNames reduces author/editor lists to family names
	// (defaults to true).
	ShortenNames *bool `toml:"shorten_names"`

	// Symbols configures the availability prefix column.
	Symbols SymbolsConfig `toml:"symbols"`
}

// SymbolsConfig configures the availability prefix column.
type SymbolsConfig struct {
	File      SymbolPairConfig `toml:"file"`
	Note      SymbolPairConfig `toml:"note"`
	Link      SymbolPairConfig `toml:"link"`
	Separator *string          `toml:"separator"`
}

// SymbolPairConfig is one present/absent marker pair. Both symbols must
// share a display width so the column stays aligned.
type SymbolPairConfig struct {
	Present string `toml:"present"`
	Absent  string `toml:"absent"`
}

// ResolveConfig orders the finder and opener chains.
type ResolveConfig struct {
	// Finders is the finder chain, in display and open precedence order
	// (defaults to library, file-field, notes, links).
	Finders []string `toml:"finders"`

	// Openers is the opener chain (defaults to viewer, system, editor,
	// browser).
	Openers []string `toml:"openers"`

	// LinkFields are the record fields turned into URL resources
	// (defaults to doi, url, eprint).
	LinkFields []string `toml:"link_fields"`

	// Recognition selects which identifier types may be recognized:
	// "all", "none", or a comma-separated type list (defaults to all).
	Recognition string `toml:"recognition"`

	// Normalization selects which recognized types are stored in
	// canonical (type, id) form: "all", "none", or a comma-separated
	// type list (defaults to all).
	Normalization string `toml:"normalization"`
}

// URLsConfig extends or overrides the URL identifier table.
type URLsConfig struct {
	// Identifiers are tried in order. An entry whose type matches a
	// built-in replaces it in place; new types append after the
	// built-ins.
	Identifiers []IdentifierConfig `toml:"identifiers"`
}

// IdentifierConfig is one URL identifier type.
type IdentifierConfig struct {
	// Type is the stable type tag, e.g. "doi".
	Type string `toml:"type"`

	// Name is the display name, e.g. "DOI".
	Name string `toml:"name"`

	// Format is the URL template with exactly one %s.
	Format string `toml:"format"`

	// Pattern is the recognition regex; its first capture group
	// extracts the identifier.
	Pattern string `toml:"pattern"`
}

// HookConfig configures the pre-refresh export command.
type HookConfig struct {
	// Export runs via sh -c before a refresh invoked with --export,
	// typically re-exporting from a reference manager.
	Export string `toml:"export"`

	// Timeout bounds the export command, as a Go duration string
	// (defaults to 2m).
	Timeout string `toml:"timeout"`
}

// ToolsConfig names the external programs used to open resources.
type ToolsConfig struct {
	// Editor opens note files (defaults to $EDITOR).
	Editor string `toml:"editor"`

	// Viewer opens attached documents; empty falls through to the
	// system opener.
	Viewer string `toml:"viewer"`

	// Browser opens URLs; empty falls through to the system opener.
	Browser string `toml:"browser"`
}

// Defaults applied by the getter methods.
const (
	DefaultMainTemplate = "${author editor:20}  ${year date:4}  ${title:*}"
	DefaultMargin       = 2
	DefaultFileField    = "file"
	DefaultHookTimeout  = 2 * time.Minute
)

func defaultExtensions() []string { return []string{".pdf"} }
func defaultLinkFields() []string { return []string{"doi", "url", "eprint"} }
func defaultFinders() []string    { return []string{"library", "file-field", "notes", "links"} }
func defaultOpeners() []string    { return []string{"viewer", "system", "editor", "browser"} }

// SourceFiles returns the global bibliography files with ~ and environment
// variables expanded.
func (c *Config) SourceFiles() []string {
	return paths.ExpandAll(c.Sources.Files)
}

// LibraryDirs returns the document directories, expanded.
func (c *Config) LibraryDirs() []string {
	return paths.ExpandAll(c.Library.Dirs)
}

// LibraryExtensions returns the document extensions, defaulted.
func (c *Config) LibraryExtensions() []string {
	if len(c.Library.Extensions) == 0 {
		return defaultExtensions()
	}
	return c.Library.Extensions
}

// FileField returns the record field holding attached file paths.
func (c *Config) FileField() string {
	if c.Library.FileField != "" {
		return c.Library.FileField
	}
	return DefaultFileField
}

// NotesConfig returns the notes location with paths expanded. The zero
// value disables note lookup entirely.
func (c *Config) NotesConfig() notes.Config {
	return notes.Config{
		Dir:      paths.Expand(c.Notes.Dir),
		File:     paths.Expand(c.Notes.File),
		Ext:      c.Notes.Extension,
		Template: c.Notes.Template,
	}
}

// MainTemplate parses the main display template.
func (c *Config) MainTemplate() (*template.Template, error) {
	raw := c.Display.Main
	if raw == "" {
		raw = DefaultMainTemplate
	}
	t, err := template.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("display.main: %w", err)
	}
	return t, nil
}

// SuffixTemplate parses the suffix template; nil when none is configured.
func (c *Config) SuffixTemplate() (*template.Template, error) {
	if c.Display.Suffix == "" {
		return nil, nil
	}
	t, err := template.Parse(c.Display.Suffix)
	if err != nil {
		return nil, fmt.Errorf("display.suffix: %w", err)
	}
	return t, nil
}

// Margin returns the reserved column count.
func (c *Config) Margin() int {
	if c.Display.Margin != nil {
		return *c.Display.Margin
	}
	return DefaultMargin
}

// Engine returns the transform chain for rendering: CleanValue always, and
// ShortenNames on author/editor unless disabled.
func (c *Config) Engine() *template.Engine {
	if c.Display.ShortenNames != nil && !*c.Display.ShortenNames {
		return template.NewEngine(template.Transform{Apply: template.CleanValue})
	}
	return template.DefaultEngine()
}

// Symbols returns the availability column configuration, defaulted per
// pair so a partial [display.symbols] section keeps the stock markers for
// whatever it does not mention.
func (c *Config) Symbols() index.Symbols {
	s := index.DefaultSymbols()
	apply := func(dst *index.SymbolPair, src SymbolPairConfig) {
		if src.Present != "" {
			dst.Present = src.Present
		}
		if src.Absent != "" {
			dst.Absent = src.Absent
		}
	}
	apply(&s.File, c.Display.Symbols.File)
	apply(&s.Note, c.Display.Symbols.Note)
	apply(&s.Link, c.Display.Symbols.Link)
	if c.Display.Symbols.Separator != nil {
		s.Separator = *c.Display.Symbols.Separator
	}
	return s
}

// Finders returns the finder chain names, defaulted.
func (c *Config) Finders() []string {
	if len(c.Resolve.Finders) == 0 {
		return defaultFinders()
	}
	return c.Resolve.Finders
}

// Openers returns the opener chain names, defaulted.
func (c *Config) Openers() []string {
	if len(c.Resolve.Openers) == 0 {
		return defaultOpeners()
	}
	return c.Resolve.Openers
}

// LinkFields returns the URL-bearing field names, defaulted.
func (c *Config) LinkFields() []string {
	if len(c.Resolve.LinkFields) == 0 {
		return defaultLinkFields()
	}
	return c.Resolve.LinkFields
}

// RecognitionPolicy parses the recognition policy (default all).
func (c *Config) RecognitionPolicy() (urls.Policy, error) {
	p, err := urls.ParsePolicy(c.Resolve.Recognition)
	if err != nil {
		return urls.Policy{}, fmt.Errorf("resolve.recognition: %w", err)
	}
	return p, nil
}

// NormalizationPolicy parses the normalization policy (default all).
func (c *Config) NormalizationPolicy() (urls.Policy, error) {
	p, err := urls.ParsePolicy(c.Resolve.Normalization)
	if err != nil {
		return urls.Policy{}, fmt.Errorf("resolve.normalization: %w", err)
	}
	return p, nil
}

// IdentifierSpecs merges configured identifiers over the built-in table.
// A configured type matching a built-in replaces it in place, keeping scan
// order; unknown types append after the built-ins in configuration order.
func (c *Config) IdentifierSpecs() []urls.Spec {
	specs := urls.DefaultSpecs()
	byType := make(map[string]int, len(specs))
	for i, s := range specs {
		byType[s.Type] = i
	}
	for _, id := range c.URLs.Identifiers {
		spec := urls.Spec{Type: id.Type, Name: id.Name, Format: id.Format, Pattern: id.Pattern}
		if i, ok := byType[id.Type]; ok {
			specs[i] = spec
			continue
		}
		byType[id.Type] = len(specs)
		specs = append(specs, spec)
	}
	return specs
}

// Registry compiles the merged identifier table.
func (c *Config) Registry() (*urls.Registry, error) {
	r, err := urls.New(c.IdentifierSpecs())
	if err != nil {
		return nil, fmt.Errorf("urls.identifiers: %w", err)
	}
	return r, nil
}

// HookTimeout returns the export command timeout.
func (c *Config) HookTimeout() (time.Duration, error) {
	if c.Hook.Timeout == "" {
		return DefaultHookTimeout, nil
	}
	d, err := time.ParseDuration(c.Hook.Timeout)
	if err != nil {
		return 0, fmt.Errorf("hook.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("hook.timeout: must be positive, got %s", d)
	}
	return d, nil
}

// Editor returns the note editor, falling back to $EDITOR.
func (c *Config) Editor() string {
	if c.Tools.Editor != "" {
		return c.Tools.Editor
	}
	return os.Getenv("EDITOR")
}

// Validate checks everything that can fail lazily, so commands fail fast
// with the offending key instead of mid-operation.
func (c *Config) Validate() error {
	if _, err := c.MainTemplate(); err != nil {
		return err
	}
	if _, err := c.SuffixTemplate(); err != nil {
		return err
	}
	if _, err := c.RecognitionPolicy(); err != nil {
		return err
	}
	if _, err := c.NormalizationPolicy(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	if _, err := c.HookTimeout(); err != nil {
		return err
	}
	if err := validateSymbols(c.Display.Symbols); err != nil {
		return err
	}
	if err := validateNames("resolve.finders", c.Finders(), defaultFinders()); err != nil {
		return err
	}
	if err := validateNames("resolve.openers", c.Openers(), defaultOpeners()); err != nil {
		return err
	}
	return nil
}

func validateSymbols(s SymbolsConfig) error {
	check := func(key string, p SymbolPairConfig) error {
		if p.Present == "" && p.Absent == "" {
			return nil
		}
		if p.Present == "" || p.Absent == "" {
			return fmt.Errorf("display.symbols.%s: present and absent must both be set", key)
		}
		pair := index.SymbolPair{Present: p.Present, Absent: p.Absent}
		if !pair.Balanced() {
			return fmt.Errorf("display.symbols.%s: %q and %q differ in display width", key, p.Present, p.Absent)
		}
		return nil
	}
	if err := check("file", s.File); err != nil {
		return err
	}
	if err := check("note", s.Note); err != nil {
		return err
	}
	return check("link", s.Link)
}

func validateNames(key string, names, known []string) error {
	set := make(map[string]bool, len(known))
	for _, n := range known {
		set[n] = true
	}
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("%s: unknown name %q (expected one of %v)", key, n, known)
		}
	}
	return nil
}

// Load loads the configuration from the resolved default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	path := ResolvePath("")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// ResolvePath picks the config file path: the explicit flag value if
// non-empty, then $FOLIO_CONFIG, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return paths.Expand(flag)
	}
	if env := os.Getenv("FOLIO_CONFIG"); env != "" {
		return paths.Expand(env)
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/folio/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	// Prefer XDG-style ~/.config/folio/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "folio", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	// Fall back to XDG config dir or OS-specific location
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "folio", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a commented default config file if none exists at
// path (empty means the default location). Returns the file's path.
func CreateDefault(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigFile), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

const defaultConfigFile = `# folio configuration
# See: folio docs configuration

# Global bibliography files, in lookup order.
# [sources]
# files = ["~/library/references.bib"]
#
# Extra fields to load beyond what templates and finders need:
# fields = ["abstract", "keywords"]

# Where attached documents live. folio looks for <dir>/<key><ext>.
# [library]
# dirs = ["~/library/files"]
# extensions = [".pdf"]
# file_field = "file"

# Where reading notes live: a directory of per-key files, a combined
# notes file searched by heading, or both.
# [notes]
# dir = "~/notes/refs"
# file = "~/notes/reading.md"
# extension = ".md"

# Candidate rendering. Placeholders are ${field alternatives:width};
# width is a column count, * for the terminal remainder, or absent for
# the value's natural width.
# [display]
# main = "${author editor:20}  ${year date:4}  ${title:*}"
# suffix = ""
# margin = 2
# shorten_names = true
#
# Availability markers. Present and absent symbols must share a width.
# [display.symbols.file]
# present = "⌘"
# absent = " "
# [display.symbols.note]
# present = "✎"
# absent = " "
# [display.symbols.link]
# present = "@"
# absent = " "

# Resource resolution order.
# [resolve]
# finders = ["library", "file-field", "notes", "links"]
# openers = ["viewer", "system", "editor", "browser"]
# link_fields = ["doi", "url", "eprint"]
#
# Which identifier types to recognize in URLs, and which to store in
# canonical (type, id) form: "all", "none", or a comma-separated list.
# recognition = "all"
# normalization = "all"

# Extra URL identifier types. An entry whose type matches a built-in
# (doi, arxiv, pmid) replaces it; new types are tried after them.
# [[urls.identifiers]]
# type = "isbn"
# name = "ISBN"
# format = "https://openlibrary.org/isbn/%s"
# pattern = '^https?://openlibrary\.org/isbn/([0-9Xx-]+)$'

# Command run before "folio refresh --export", typically re-exporting
# the bibliography from a reference manager.
# [hook]
# export = "zotero-export ~/library/references.bib"
# timeout = "2m"

# External programs. Empty viewer/browser fall through to the system
# opener; the editor defaults to $EDITOR.
# [tools]
# editor = "nvim"
# viewer = "zathura"
# browser = "firefox"
`
