package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/Marcus8009/languageapp/pkg/manifest"
)

var loaderTemplate = template.Must(template.New("loader").Parse(
	`// Auto-generated batch audio loader
{{range .Batches}}
async function {{.FuncName}}() {
  return {
{{- range .Rows}}
    '{{.Key}}': { get: () => {{.Reference}} },
{{- end}}
  };
}
{{end}}
export async function createBatchAudioManifest(level, batchNum) {
  const batchPrefix = String(batchNum).padStart(2, '0');

  switch (` + "`" + `{{.LevelPrefix}}${level}-{{.BatchPrefix}}${batchPrefix}` + "`" + `) {
{{- range .Batches}}
    case '{{.CaseLabel}}':
      return await {{.FuncName}}();
{{- end}}
    default:
      console.warn(` + "`" + `No predefined audio manifest for {{.LevelPrefix}}${level} {{.BatchPrefix}}${batchPrefix}` + "`" + `);
      return {};
  }
}
`))

type batchView struct {
	FuncName  string
	CaseLabel string
	Rows      []rowView
}

type rowView struct {
	Key       string
	Reference string
}

// Render writes the loader module for the given batches.
func Render(w io.Writer, cfg Config, batches []Batch) error {
	cfg = cfg.withDefaults()

	views := make([]batchView, 0, len(batches))
	for _, b := range Sorted(batches) {
		v := batchView{FuncName: b.FuncName(), CaseLabel: manifest.QuoteJS(b.CaseLabel())}
		for _, e := range b.Entries {
			v.Rows = append(v.Rows, rowView{
				Key:       manifest.QuoteJS(e.Key),
				Reference: e.Reference(cfg.Prefix),
			})
		}
		views = append(views, v)
	}

	err := loaderTemplate.Execute(w, struct {
		LevelPrefix string
		BatchPrefix string
		Batches     []batchView
	}{
		LevelPrefix: cfg.LevelPrefix,
		BatchPrefix: cfg.BatchPrefix,
		Batches:     views,
	})
	if err != nil {
		return fmt.Errorf("failed to render loader: %w", err)
	}
	return nil
}

// Result describes a generated loader module.
type Result struct {
	OutputFile string
	Batches    []Batch
	Content    []byte
}

// Build scans the tree and renders the loader without writing it.
func Build(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	batches, err := Scan(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Render(&buf, cfg, batches); err != nil {
		return nil, err
	}

	return &Result{
		OutputFile: cfg.OutputFile,
		Batches:    batches,
		Content:    buf.Bytes(),
	}, nil
}

// Write stores the rendered loader atomically.
func (r *Result) Write() error {
	return manifest.WriteFileAtomic(r.OutputFile, r.Content)
}

// Generate scans the tree, renders the loader and writes it.
func Generate(ctx context.Context, cfg Config) (*Result, error) {
	r, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := r.Write(); err != nil {
		return nil, err
	}
	return r, nil
}
