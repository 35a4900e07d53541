package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, actor, fmt string }{flagURL, flagActor, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagActor = orig.actor
		flagFmt = orig.fmt
	})
}

// isolate points HOME at an empty temp dir and clears the CLI's env vars.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APTAUDIT_URL", "")
	t.Setenv("APTAUDIT_ACTOR", "")
	flagURL = defaultURL
	flagActor = ""
	return home
}

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".aptaudit")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveConfigEnv(t *testing.T) {
	isolate(t)
	t.Setenv("APTAUDIT_URL", "http://env-server:9090")
	t.Setenv("APTAUDIT_ACTOR", "maria")

	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q", flagURL)
	}
	if flagActor != "maria" {
		t.Errorf("flagActor: got %q", flagActor)
	}
}

func TestResolveConfigFlagTakesPrecedenceOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv("APTAUDIT_URL", "http://env-server:9090")
	flagURL = "http://flag-server:1234"

	resolveConfig()

	if flagURL != "http://flag-server:1234" {
		t.Errorf("flagURL: got %q, want flag value", flagURL)
	}
}

func TestResolveConfigFlatYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "url: http://file-server:7000\nactor: inspector-7\n")

	resolveConfig()

	if flagURL != "http://file-server:7000" || flagActor != "inspector-7" {
		t.Errorf("got url=%q actor=%q", flagURL, flagActor)
	}
}

func TestResolveConfigProfileYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
url: http://flat:1
active_profile: staging
profiles:
  default:
    url: http://default:2
  staging:
    url: http://staging:3
    actor: qa-bot
`)

	resolveConfig()

	if flagURL != "http://staging:3" || flagActor != "qa-bot" {
		t.Errorf("got url=%q actor=%q", flagURL, flagActor)
	}
}

func TestResolveConfigDefaultProfile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "profiles:\n  default:\n    url: http://default:2\n")

	resolveConfig()

	if flagURL != "http://default:2" {
		t.Errorf("flagURL: got %q", flagURL)
	}
}

func TestResolveConfigMissingOrInvalidFile(t *testing.T) {
	home := isolate(t)

	resolveConfig()
	if flagURL != defaultURL {
		t.Errorf("missing file changed url to %q", flagURL)
	}

	writeConfig(t, home, "url: [unclosed\n")
	resolveConfig()
	if flagURL != defaultURL {
		t.Errorf("invalid file changed url to %q", flagURL)
	}
}

func TestResolveConfigEnvNotOverriddenByFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "url: http://file:1\nactor: file-actor\n")
	t.Setenv("APTAUDIT_URL", "http://env:2")
	t.Setenv("APTAUDIT_ACTOR", "env-actor")

	resolveConfig()

	if flagURL != "http://env:2" || flagActor != "env-actor" {
		t.Errorf("got url=%q actor=%q", flagURL, flagActor)
	}
}
