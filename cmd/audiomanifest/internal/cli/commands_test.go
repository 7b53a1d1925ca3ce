package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupProject creates an app directory with the given audio files under
// assets/audio, isolates the global config and makes it the working dir.
func setupProject(t *testing.T, audio ...string) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "AUDIOMANIFEST_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), "{}")
	for _, rel := range audio {
		writeFile(t, filepath.Join(dir, "assets", "audio", filepath.FromSlash(rel)), "audio:"+rel)
	}
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// resetFlags restores every flag to its default so package-level commands
// can be executed repeatedly.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := RootCmd()
	resetFlags(root)
	t.Cleanup(func() { resetFlags(root) })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--verbosity", "0"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestGenerate_WritesManifest(t *testing.T) {
	dir := setupProject(t,
		"L1-0001eng.mp3",
		"HSK1/batch01/L1-0002eng.mp3",
		"HSK1/batch01/L1-0003eng.MP3",
	)

	out, err := execute(t, "generate")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "Manifest generated: ./audioManifest.js") {
		t.Errorf("missing confirmation line: %q", out)
	}

	want := "export const audioManifest = {\n" +
		"  'L1-0001eng': require('./assets/audio/L1-0001eng.mp3'),\n" +
		"  'L1-0002eng': require('./assets/audio/HSK1/batch01/L1-0002eng.mp3'),\n" +
		"};\n"
	if got := readFile(t, filepath.Join(dir, "audioManifest.js")); got != want {
		t.Errorf("manifest =\n%s\nwant\n%s", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, ".audiomanifest", "state.json")); err != nil {
		t.Errorf("generate should record state: %v", err)
	}
}

func TestRoot_DefaultsToGenerate(t *testing.T) {
	dir := setupProject(t, "a.mp3")

	out, err := execute(t)
	if err != nil {
		t.Fatalf("audiomanifest error = %v", err)
	}
	if !strings.Contains(out, "Manifest generated:") {
		t.Errorf("root command should generate, got %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "audioManifest.js")); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestGenerate_EmptySourceDir(t *testing.T) {
	dir := setupProject(t)

	if _, err := execute(t, "generate"); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "audioManifest.js")); got != "export const audioManifest = {\n};\n" {
		t.Errorf("empty manifest = %q", got)
	}
}

func TestGenerate_FlagsOverrideConfigFile(t *testing.T) {
	dir := setupProject(t, "a.mp3")
	writeFile(t, filepath.Join(dir, "audiomanifest.toml"), `
[manifest]
export_name = "fromFile"
prefix = "../assets/audio"
`)

	if _, err := execute(t, "generate", "--export-name", "fromFlag"); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	got := readFile(t, filepath.Join(dir, "audioManifest.js"))
	if !strings.HasPrefix(got, "export const fromFlag = {") {
		t.Errorf("flag should win over config file: %q", got)
	}
	if !strings.Contains(got, "require('../assets/audio/a.mp3')") {
		t.Errorf("config file prefix should apply: %q", got)
	}
}

func TestGenerate_ExplicitConfigFile(t *testing.T) {
	dir := setupProject(t, "a.mp3")
	cfgPath := filepath.Join(t.TempDir(), "ci.toml")
	writeFile(t, cfgPath, "[manifest]\nexport_name = \"ciManifest\"\n")

	if _, err := execute(t, "generate", "--config", cfgPath); err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "audioManifest.js")); !strings.HasPrefix(got, "export const ciManifest") {
		t.Errorf("explicit config not applied: %q", got)
	}

	if _, err := execute(t, "generate", "--config", filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("a missing --config file should fail")
	}
}

func TestGenerate_EnvOverride(t *testing.T) {
	dir := setupProject(t, "a.mp3")
	t.Setenv("AUDIOMANIFEST_OUTPUT_FILE", "src/generated/audio.js")
	if err := os.MkdirAll(filepath.Join(dir, "src", "generated"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "generate")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "Manifest generated: src/generated/audio.js") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestGenerate_DuplicatesError(t *testing.T) {
	dir := setupProject(t, "HSK1/intro.mp3", "HSK2/intro.mp3")

	_, err := execute(t, "generate", "--duplicates", "error")
	if err == nil {
		t.Fatal("duplicate keys should fail with --duplicates=error")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "audioManifest.js")); statErr == nil {
		t.Error("nothing should be written when generation fails")
	}

	if _, err := execute(t, "generate"); err != nil {
		t.Fatalf("default policy should keep the last entry: %v", err)
	}
	got := readFile(t, filepath.Join(dir, "audioManifest.js"))
	if !strings.Contains(got, "'intro': require('./assets/audio/HSK2/intro.mp3')") {
		t.Errorf("last-sorted entry should win: %q", got)
	}
}

func TestGenerate_InvalidFlags(t *testing.T) {
	setupProject(t)

	for _, args := range [][]string{
		{"generate", "--trim-mode", "sideways"},
		{"generate", "--duplicates", "first"},
		{"generate", "--export-name", "audio-manifest"},
		{"generate", "--exclude", "[unclosed"},
		{"generate", "--ext="},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v should fail validation", args)
		}
	}
}

func TestGenerate_WithLoader(t *testing.T) {
	dir := setupProject(t, "HSK1/batch01/L1-0001eng.mp3")

	out, err := execute(t, "generate", "--loader")
	if err != nil {
		t.Fatalf("generate --loader error = %v", err)
	}
	if !strings.Contains(out, "Loader generated: ./batchAudioLoader.js") {
		t.Errorf("missing loader confirmation: %q", out)
	}
	if got := readFile(t, filepath.Join(dir, "batchAudioLoader.js")); !strings.Contains(got, "async function loadHSK1Batch01()") {
		t.Errorf("loader content: %q", got)
	}
}

func TestCheck(t *testing.T) {
	dir := setupProject(t, "a.mp3")

	out, err := execute(t, "check")
	if !errors.Is(err, ErrStale) {
		t.Fatalf("check without output should be stale, err = %v", err)
	}
	if !strings.Contains(out, "missing") {
		t.Errorf("expected missing-file message: %q", out)
	}

	if _, err := execute(t, "generate"); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "check")
	if err != nil {
		t.Fatalf("check after generate error = %v", err)
	}
	if !strings.Contains(out, "Manifest is up to date") {
		t.Errorf("unexpected output: %q", out)
	}

	writeFile(t, filepath.Join(dir, "assets", "audio", "b.mp3"), "b")
	out, err = execute(t, "check")
	if !errors.Is(err, ErrStale) {
		t.Fatalf("check after adding a file should be stale, err = %v", err)
	}
	if !strings.Contains(out, "would write 2 entries") || !strings.Contains(out, "audiomanifest generate") {
		t.Errorf("expected stale report with hint: %q", out)
	}
}

func TestCheck_DoesNotWrite(t *testing.T) {
	dir := setupProject(t, "a.mp3")

	_, _ = execute(t, "check")
	if _, err := os.Stat(filepath.Join(dir, "audioManifest.js")); err == nil {
		t.Error("check must not write the manifest")
	}
}

func TestStatus(t *testing.T) {
	dir := setupProject(t, "HSK1/batch01/a.mp3")

	out, err := execute(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "No state found") {
		t.Errorf("expected no-state message: %q", out)
	}

	if _, err := execute(t, "generate"); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "unchanged") {
		t.Errorf("expected clean status: %q", out)
	}

	writeFile(t, filepath.Join(dir, "assets", "audio", "HSK2", "batch01", "b.mp3"), "b")
	out, err = execute(t, "status", "--verbose")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "HSK2/batch01") || !strings.Contains(out, "+ HSK2/batch01/b.mp3") {
		t.Errorf("expected changed dir and file: %q", out)
	}
}

func TestStatus_JSON(t *testing.T) {
	dir := setupProject(t, "a.mp3")
	if _, err := execute(t, "generate"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "assets", "audio", "a.mp3")); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "status", "--json")
	if err != nil {
		t.Fatalf("status --json error = %v", err)
	}

	var got StatusOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("status --json is not JSON: %v\n%s", err, out)
	}
	if !got.Stale || len(got.DeletedFiles) != 1 || got.DeletedFiles[0] != "a.mp3" {
		t.Errorf("StatusOutput = %+v, want a.mp3 deleted", got)
	}
	if len(got.StaleKeys) != 1 || got.StaleKeys[0] != "a" {
		t.Errorf("StaleKeys = %v, want [a]", got.StaleKeys)
	}
}

func TestStatusOutput_JSONOmitEmpty(t *testing.T) {
	data, err := json.Marshal(StatusOutput{StaleDirs: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, field := range []string{"new_files", "modified_files", "deleted_files", "error", "stale_keys"} {
		if strings.Contains(s, field) {
			t.Errorf("empty %s should be omitted: %s", field, s)
		}
	}
}

func TestLoaderCmd(t *testing.T) {
	dir := setupProject(t,
		"HSK1/batch01/L1-0001eng.mp3",
		"HSK1/batch02/L1-0101eng.mp3",
		"misc/ignored.mp3",
	)

	out, err := execute(t, "loader", "--dry-run")
	if err != nil {
		t.Fatalf("loader --dry-run error = %v", err)
	}
	for _, want := range []string{
		"// Auto-generated batch audio loader",
		"async function loadHSK1Batch01()",
		"async function loadHSK1Batch02()",
		"export async function createBatchAudioManifest(level, batchNum)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run missing %q", want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "batchAudioLoader.js")); err == nil {
		t.Error("--dry-run must not write the loader")
	}

	_, err = execute(t, "loader", "-o", "src/loader.js")
	if err == nil {
		t.Fatal("writing into a missing directory should fail")
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	out, err = execute(t, "loader", "-o", "src/loader.js")
	if err != nil {
		t.Fatalf("loader error = %v", err)
	}
	if !strings.Contains(out, "Loader generated: src/loader.js (2 batches)") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestInit(t *testing.T) {
	dir := setupProject(t, "a.m4a", "b.m4a", "c.mp3")

	out, err := execute(t, "init", "--dry-run")
	if err != nil {
		t.Fatalf("init --dry-run error = %v", err)
	}
	if !strings.Contains(out, `extension = ".m4a"`) {
		t.Errorf("most common format should be picked: %s", out)
	}

	if _, err := execute(t, "init", "--check"); err == nil {
		t.Error("init --check should fail before init")
	}

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "audiomanifest.toml")); err != nil {
		t.Fatalf("audiomanifest.toml not written: %v", err)
	}

	out, err = execute(t, "init", "--check")
	if err != nil {
		t.Fatalf("init --check error = %v", err)
	}
	if !strings.Contains(out, "properly configured") {
		t.Errorf("unexpected check output: %q", out)
	}

	out, err = execute(t, "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("init should not overwrite without --force: %q", out)
	}

	// The written config drives generate.
	if _, err := execute(t, "generate"); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, filepath.Join(dir, "audioManifest.js"))
	if !strings.Contains(got, "'a': require('./assets/audio/a.m4a')") || strings.Contains(got, "c.mp3") {
		t.Errorf("generate should use the initialized extension: %q", got)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "audiomanifest dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestFormatCounts(t *testing.T) {
	got := formatCounts(map[string]int{".wav": 1, ".MP3": 2})
	if got != ".MP3=2 .wav=1" {
		t.Errorf("formatCounts() = %q", got)
	}
}
