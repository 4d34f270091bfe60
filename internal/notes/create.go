package notes

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/folio-bib/folio/internal/atomicfile"
	"github.com/folio-bib/folio/internal/record"
)

// Create writes a fresh note for key from the skeleton template and returns
// its path. An already-resolvable note is an ErrExists error, never an
// overwrite.
func (c Config) Create(key string, rec record.Record) (string, error) {
	if c.Dir == "" {
		return "", errors.New("notes directory is not configured")
	}
	if ref, ok, err := c.Resolve(key); err != nil {
		return "", err
	} else if ok {
		return "", fmt.Errorf("%w: %s", ErrExists, ref.Path)
	}
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", fmt.Errorf("create notes directory: %w", err)
	}

	path := c.PathFor(key)
	content := applySkeleton(c.template(), key, rec)
	if err := atomicfile.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return path, nil
}

// applySkeleton substitutes {{name}} variables into the skeleton. Escaped
// \{{ sequences become literal {{. Unknown variables are left as-is.
func applySkeleton(content, key string, rec record.Record) string {
	content = strings.ReplaceAll(content, "\\{{", "«FOLIO_ESC_OPEN»")

	replacements := map[string]string{
		"{{key}}":    key,
		"{{title}}":  rec.Get("title"),
		"{{author}}": rec.Get("author"),
		"{{editor}}": rec.Get("editor"),
		"{{year}}":   rec.Get("year"),
		"{{date}}":   time.Now().Format("2006-01-02"),
	}
	for placeholder, value := range replacements {
		content = strings.ReplaceAll(content, placeholder, value)
	}

	// Any record field is reachable as {{field.NAME}}.
	for name, value := range rec.Map() {
		content = strings.ReplaceAll(content, "{{field."+name+"}}", value)
	}

	return strings.ReplaceAll(content, "«FOLIO_ESC_OPEN»", "{{")
}
