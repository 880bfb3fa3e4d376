package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configPath = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "aiftbot dev (commit local") {
		t.Errorf("output = %q", out)
	}
}

func TestCheckConfigValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `telegram:
  token: "123:abc"
provider:
  services:
    lexto:
      url: https://example.test/lexto
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "check-config", "--config", path)
	if err != nil {
		t.Fatalf("check-config: %v", err)
	}
	for _, want := range []string{"run_mode:  longpoll", "services:  lexto", "journal:   disabled", "warning:   no provider entry"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckConfigMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("telegram: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "check-config", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "token is required") {
		t.Fatalf("err = %v, want token error", err)
	}
}

func TestCheckConfigMissingFile(t *testing.T) {
	_, err := execute(t, "check-config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
