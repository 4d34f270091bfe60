// Package buildinfo holds the release identity stamped into folio binaries.
//
// Release builds inject the values through ldflags:
//
//	-X github.com/folio-bib/folio/internal/buildinfo.Version=v1.2.3
//
// Local builds leave them empty; the version command then falls back to the
// module build info embedded by the toolchain.
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)
