package manifest

import (
	"bytes"
	"fmt"
	"io"
	"text/template"
)

var manifestTemplate = template.Must(template.New("manifest").Parse(
	`export const {{.ExportName}} = {
{{- range .Rows}}
  '{{.Key}}': {{.Reference}},
{{- end}}
};
`))

type row struct {
	Key       string
	Reference string
}

// Render writes the manifest module for already-resolved entries.
func Render(w io.Writer, exportName, prefix string, entries []Entry) error {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{Key: QuoteJS(e.Key), Reference: e.Reference(prefix)}
	}

	err := manifestTemplate.Execute(w, struct {
		ExportName string
		Rows       []row
	}{
		ExportName: exportName,
		Rows:       rows,
	})
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}
	return nil
}

// RenderBytes is Render into a fresh buffer.
func RenderBytes(exportName, prefix string, entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, exportName, prefix, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
