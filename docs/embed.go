// Package docs embeds the user guide topics served by "folio docs".
package docs

import "embed"

//go:embed *.md
var FS embed.FS
