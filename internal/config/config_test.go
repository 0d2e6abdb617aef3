package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	content := `
# comment
BOT_TOKEN=abc123
export CHANNEL_ID=-1001234567890
QUOTED="with spaces"
ALREADY_SET=from_file

broken line without equals
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ALREADY_SET", "from_env")
	t.Setenv("BOT_TOKEN", "")
	os.Unsetenv("BOT_TOKEN")
	os.Unsetenv("CHANNEL_ID")
	os.Unsetenv("QUOTED")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}

	if got := os.Getenv("BOT_TOKEN"); got != "abc123" {
		t.Errorf("BOT_TOKEN = %q", got)
	}
	if got := os.Getenv("CHANNEL_ID"); got != "-1001234567890" {
		t.Errorf("CHANNEL_ID = %q", got)
	}
	if got := os.Getenv("QUOTED"); got != "with spaces" {
		t.Errorf("QUOTED = %q", got)
	}
	// Process environment wins over the file.
	if got := os.Getenv("ALREADY_SET"); got != "from_env" {
		t.Errorf("ALREADY_SET = %q, want from_env", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
}

func TestParseIDList(t *testing.T) {
	cases := []struct {
		raw  string
		want []int64
	}{
		{"1,2,3", []int64{1, 2, 3}},
		{" 10; 20 ", []int64{10, 20}},
		{"", nil},
		{"abc, 5", []int64{5}},
	}
	for _, tc := range cases {
		got := parseIDList(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("parseIDList(%q) = %v, want %v", tc.raw, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseIDList(%q)[%d] = %d, want %d", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{11, 22}}
	if !cfg.IsAdmin(22) {
		t.Error("22 should be an admin")
	}
	if cfg.IsAdmin(33) {
		t.Error("33 should not be an admin")
	}
}
