package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledgersmith-dev/ledgersmith/internal/config"
)

// clearKeyEnv unsets every registered env var for the duration of the test.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, spec := range knownKeys {
		for _, env := range spec.EnvVars {
			t.Setenv(env, "")
			os.Unsetenv(env)
		}
	}
}

func TestGetFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(config.EnvHome, t.TempDir())
	Reset()
	t.Cleanup(Reset)

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	v, err := Get("anthropic_api_key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "sk-ant-test" {
		t.Errorf("got %q, want sk-ant-test", v)
	}
}

func TestGetEnvAliasOrder(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(config.EnvHome, t.TempDir())
	Reset()
	t.Cleanup(Reset)

	t.Setenv("GEMINI_API_KEY", "from-alias")
	if v, err := Get("google_api_key"); err != nil || v != "from-alias" {
		t.Fatalf("alias lookup: got %q, %v", v, err)
	}

	// The primary variable wins over the alias.
	t.Setenv("GOOGLE_API_KEY", "from-primary")
	if v, _ := Get("google_api_key"); v != "from-primary" {
		t.Errorf("got %q, want from-primary", v)
	}
}

func TestGetFromConfigFile(t *testing.T) {
	clearKeyEnv(t)
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	Reset()
	t.Cleanup(Reset)

	content := "[secrets]\nanthropic_api_key = \"sk-from-file\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := Get("anthropic_api_key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "sk-from-file" {
		t.Errorf("got %q, want sk-from-file", v)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	clearKeyEnv(t)
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	Reset()
	t.Cleanup(Reset)

	content := "[secrets]\nanthropic_api_key = \"sk-from-file\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")

	if v, _ := Get("anthropic_api_key"); v != "sk-from-env" {
		t.Errorf("got %q, want sk-from-env", v)
	}
}

func TestGetMissing(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv(config.EnvHome, t.TempDir())
	Reset()
	t.Cleanup(Reset)

	_, err := Get("anthropic_api_key")
	if err == nil {
		t.Fatal("expected error for unconfigured secret")
	}
	if got := err.Error(); !strings.Contains(got, "ANTHROPIC_API_KEY") || !strings.Contains(got, "[secrets]") {
		t.Errorf("error lacks guidance: %s", got)
	}

	if IsSet("anthropic_api_key") {
		t.Error("IsSet should be false for unconfigured secret")
	}
}

func TestGetUnknownKey(t *testing.T) {
	if _, err := Get("no_such_key"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestMalformedConfigFile(t *testing.T) {
	clearKeyEnv(t)
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	Reset()
	t.Cleanup(Reset)

	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte("not [valid toml"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Get("anthropic_api_key"); err == nil {
		t.Fatal("expected parse error for malformed config file")
	}
}

func TestKnown(t *testing.T) {
	infos := Known()
	if len(infos) != len(knownKeys) {
		t.Fatalf("got %d keys, want %d", len(infos), len(knownKeys))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Name >= infos[i].Name {
			t.Errorf("not sorted: %s before %s", infos[i-1].Name, infos[i].Name)
		}
	}
}
