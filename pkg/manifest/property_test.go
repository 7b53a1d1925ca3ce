package manifest

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var (
	genKey    = rapid.StringMatching(`[a-z0-9][a-z0-9_-]{0,7}`)
	genSubdir = rapid.SampledFrom([]string{"", "HSK1", "HSK1/batch01", "HSK1/batch02", "HSK2/batch01"})
)

func TestResolveProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		entries := make([]Entry, n)
		distinct := make(map[string]string)
		for i := range entries {
			key := genKey.Draw(t, "key")
			p := path.Join(genSubdir.Draw(t, "dir"), key+".mp3")
			entries[i] = Entry{Key: key, Path: p}
			if prev, ok := distinct[key]; !ok || RequireExpr(DefaultPrefix, p) > RequireExpr(DefaultPrefix, prev) {
				distinct[key] = p
			}
		}

		out, collisions, err := Resolve(entries, DuplicatesLast)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		if len(out) != len(distinct) {
			t.Fatalf("got %d entries, want %d distinct keys", len(out), len(distinct))
		}
		if len(out)+len(collisions) != len(entries) {
			t.Fatalf("entries %d + collisions %d != input %d", len(out), len(collisions), len(entries))
		}
		for i := 1; i < len(out); i++ {
			if out[i-1].Key >= out[i].Key {
				t.Fatalf("keys not strictly increasing at %d: %q, %q", i, out[i-1].Key, out[i].Key)
			}
		}
		for _, e := range out {
			if e.Path != distinct[e.Key] {
				t.Fatalf("key %q kept %q, want last-sorted %q", e.Key, e.Path, distinct[e.Key])
			}
		}
	})
}

func TestRenderDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfDistinct(genKey, func(k string) string { return k }).Draw(t, "keys")
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			entries[i] = Entry{Key: k, Path: k + ".mp3"}
		}

		shuffled := slices.Clone(entries)
		slices.Reverse(shuffled)

		a, _, _ := Resolve(entries, DuplicatesLast)
		b, _, _ := Resolve(shuffled, DuplicatesLast)

		outA, err := RenderBytes(DefaultExportName, DefaultPrefix, a)
		if err != nil {
			t.Fatal(err)
		}
		outB, err := RenderBytes(DefaultExportName, DefaultPrefix, b)
		if err != nil {
			t.Fatal(err)
		}
		if string(outA) != string(outB) {
			t.Fatalf("render depends on input order:\n%s\n---\n%s", outA, outB)
		}

		lines := strings.Split(strings.TrimSuffix(string(outA), "\n"), "\n")
		if len(lines) != len(keys)+2 {
			t.Fatalf("got %d lines, want %d", len(lines), len(keys)+2)
		}
	})
}

func TestGenerateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		project, err := os.MkdirTemp("", "audiomanifest-prop-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(project)

		cfg := DefaultConfig()
		cfg.SourceDir = filepath.Join(project, "assets", "audio")
		cfg.OutputFile = filepath.Join(project, "audioManifest.js")

		files := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) string {
			return path.Join(genSubdir.Draw(t, "dir"), genKey.Draw(t, "key")+".mp3")
		}), 0, 15).Draw(t, "files")

		keys := make(map[string]bool)
		for _, f := range files {
			full := filepath.Join(cfg.SourceDir, filepath.FromSlash(f))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(full, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			keys[strings.TrimSuffix(path.Base(f), ".mp3")] = true
		}

		m, err := Generate(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(m.Entries) != len(keys) {
			t.Fatalf("got %d entries, want %d", len(m.Entries), len(keys))
		}

		for _, e := range m.Entries {
			if !keys[e.Key] {
				t.Fatalf("unexpected key %q", e.Key)
			}
			if path.Base(e.Path) != e.Key+".mp3" {
				t.Fatalf("key %q does not match file %q", e.Key, e.Path)
			}
			// leaf marker + path resolves to the file relative to the output dir
			onDisk := filepath.Join(filepath.Dir(cfg.OutputFile), "assets", "audio", filepath.FromSlash(e.Path))
			if _, err := os.Stat(onDisk); err != nil {
				t.Fatalf("reference for %q does not resolve: %v", e.Key, err)
			}
		}

		first, err := os.ReadFile(cfg.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Generate(context.Background(), cfg); err != nil {
			t.Fatal(err)
		}
		second, err := os.ReadFile(cfg.OutputFile)
		if err != nil {
			t.Fatal(err)
		}
		if string(first) != string(second) {
			t.Fatal("second run changed the output")
		}
	})
}
