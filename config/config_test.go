package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testConfig() ResolverConfig {
	return ResolverConfig{ErrWriter: io.Discard}
}

func TestResolver_Defaults(t *testing.T) {
	resolver := NewResolverWithPaths(testConfig(), "", "")

	cfg := resolver.Resolve()

	if got := cfg.Get(KeyPromptDir); got != ".convoflow/prompts" {
		t.Errorf("prompt_dir = %q, want %q", got, ".convoflow/prompts")
	}
	if got := cfg.Source(KeyPromptDir); got != SourceDefault {
		t.Errorf("source = %q, want %q", got, SourceDefault)
	}
}

func TestResolver_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CONVOFLOW_PROMPT_DIR", "./env-prompts")

	cfg := NewResolverWithPaths(testConfig(), "", "").Resolve()

	if got := cfg.Get(KeyPromptDir); got != "./env-prompts" {
		t.Errorf("prompt_dir = %q, want %q", got, "./env-prompts")
	}
	if got := cfg.Source(KeyPromptDir); got != SourceEnv {
		t.Errorf("source = %q, want %q", got, SourceEnv)
	}
}

func TestResolver_GlobalConfig(t *testing.T) {
	globalPath := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(globalPath, []byte("default_model: opus\n"), 0o644)

	cfg := NewResolverWithPaths(testConfig(), globalPath, "").Resolve()

	if got := cfg.Get(KeyDefaultModel); got != "opus" {
		t.Errorf("default_model = %q, want %q", got, "opus")
	}
	if got := cfg.Source(KeyDefaultModel); got != SourceGlobal {
		t.Errorf("source = %q, want %q", got, SourceGlobal)
	}
}

func TestResolver_ProjectOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "config.yaml")
	projectPath := filepath.Join(dir, ProjectConfigName)
	os.WriteFile(globalPath, []byte("filler_lang: en-us\n"), 0o644)
	os.WriteFile(projectPath, []byte("filler_lang: es-mx\n"), 0o644)

	cfg := NewResolverWithPaths(testConfig(), globalPath, projectPath).Resolve()

	if got, src := cfg.GetWithSource(KeyFillerLang); got != "es-mx" || src != SourceProject {
		t.Errorf("filler_lang = %q from %q, want es-mx from project", got, src)
	}
}

func TestResolver_Priority(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "config.yaml")
	projectPath := filepath.Join(dir, ProjectConfigName)
	os.WriteFile(globalPath, []byte("log_level: warn\n"), 0o644)
	os.WriteFile(projectPath, []byte("log_level: debug\n"), 0o644)
	t.Setenv("CONVOFLOW_LOG_LEVEL", "error")

	cfg := NewResolverWithPaths(testConfig(), globalPath, projectPath).Resolve()

	// Env should win
	if got := cfg.Get(KeyLogLevel); got != "error" {
		t.Errorf("log_level = %q, want %q (env should have highest priority)", got, "error")
	}
}

func TestResolver_ResolveWithOverrides(t *testing.T) {
	cfg := NewResolverWithPaths(testConfig(), "", "").ResolveWithOverrides(map[string]string{
		KeyDocstorePath: "/tmp/docs.db",
		KeyDefaultModel: "", // empty overrides are ignored
	})

	if got, src := cfg.GetWithSource(KeyDocstorePath); got != "/tmp/docs.db" || src != SourceOverride {
		t.Errorf("docstore_path = %q from %q, want override", got, src)
	}
	if got := cfg.Source(KeyDefaultModel); got != SourceDefault {
		t.Errorf("empty override changed source to %q", got)
	}
}

func TestResolver_UnknownKeyWarns(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), ProjectConfigName)
	os.WriteFile(projectPath, []byte("prompt_dir: ./p\nmystery: value\n"), 0o644)

	resolver := NewResolverWithPaths(testConfig(), "", projectPath)
	cfg := resolver.Resolve()

	if got := cfg.Get(KeyPromptDir); got != "./p" {
		t.Errorf("prompt_dir = %q, want %q", got, "./p")
	}
	if got := cfg.Get("mystery"); got != "" {
		t.Errorf("mystery = %q, want empty", got)
	}
	if len(resolver.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1: %v", len(resolver.Warnings), resolver.Warnings)
	}
}

func TestResolver_MalformedFileWarns(t *testing.T) {
	projectPath := filepath.Join(t.TempDir(), ProjectConfigName)
	os.WriteFile(projectPath, []byte(":\tnot yaml"), 0o644)

	resolver := NewResolverWithPaths(testConfig(), "", projectPath)
	cfg := resolver.Resolve()

	if got := cfg.Source(KeyPromptDir); got != SourceDefault {
		t.Errorf("malformed file should leave defaults, got source %q", got)
	}
	if len(resolver.Warnings) == 0 {
		t.Error("expected a parse warning")
	}
}

func TestResolved_All(t *testing.T) {
	cfg := NewResolverWithPaths(testConfig(), "", "").Resolve()
	all := cfg.All()

	if len(all) != len(Defaults()) {
		t.Errorf("got %d keys, want %d", len(all), len(Defaults()))
	}
	if all[KeyFillerLang] != "default" {
		t.Errorf("filler_lang = %q, want %q", all[KeyFillerLang], "default")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()

	nested := filepath.Join(tmpDir, "a", "b", "c")
	os.MkdirAll(nested, 0o755)
	os.WriteFile(filepath.Join(tmpDir, ProjectConfigName), []byte("log_level: info\n"), 0o644)

	root := findProjectRoot(nested)
	if root != tmpDir {
		t.Errorf("findProjectRoot() = %q, want %q", root, tmpDir)
	}
}

func TestFindProjectRoot_NotFound(t *testing.T) {
	root := findProjectRoot(t.TempDir())
	if root != "" {
		t.Errorf("findProjectRoot() = %q, want empty", root)
	}
}
