// Package shellquote builds argument strings safe to hand to "sh -c".
// Tool commands from configuration (editor, viewer, browser) may carry
// their own flags, so the command itself is never quoted; only the
// arguments appended to it are.
package shellquote

import "strings"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes each argument and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
