package manifest

import (
	"fmt"
	"strings"
)

// Entry is one row of the generated table.
type Entry struct {
	Key    string // file name without extension
	Path   string // forward-slash path appended to the prefix
	Source string // on-disk path, for diagnostics
}

// Reference returns the module-load expression for the entry.
func (e Entry) Reference(prefix string) string {
	return RequireExpr(prefix, e.Path)
}

// Collision records a key that was claimed by more than one file.
type Collision struct {
	Key     string
	Kept    string
	Dropped string
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// QuoteJS escapes s for use inside a single-quoted JavaScript string.
func QuoteJS(s string) string {
	return jsEscaper.Replace(s)
}

// RequireExpr builds require('<prefix>/<path>'). The prefix is used
// verbatim.
func RequireExpr(prefix, path string) string {
	return fmt.Sprintf("require('%s/%s')", QuoteJS(prefix), QuoteJS(path))
}
