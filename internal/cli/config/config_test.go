package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "table" || cfg.Profiles == nil {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	want := &CLIConfig{
		Current: "prod",
		Output:  "json",
		Profiles: map[string]Profile{
			"prod":  {Server: "https://10.0.0.5:7080", Token: "gwat_secret", CAFile: "/etc/gridwire/ca.pem"},
			"local": {Server: DefaultServer, Insecure: true},
		},
	}
	if err := Save(want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v, want 0600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("current: a\nservr: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject unknown keys")
	}
}

func TestDefaultConfigPathEnv(t *testing.T) {
	t.Setenv(PathEnv, "/tmp/custom.yaml")
	if got := DefaultConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}

func TestSelected(t *testing.T) {
	cfg := &CLIConfig{
		Current:  "a",
		Profiles: map[string]Profile{"a": {Server: "a:1"}, "b": {Server: "b:1"}},
	}
	tests := []struct {
		name    string
		cfg     *CLIConfig
		pick    string
		want    string
		ok      bool
		wantErr bool
	}{
		{"current", cfg, "", "a:1", true, false},
		{"explicit", cfg, "b", "b:1", true, false},
		{"missing", cfg, "c", "", false, true},
		{"none", Default(), "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok, err := tt.cfg.Selected(tt.pick)
			if (err != nil) != tt.wantErr || ok != tt.ok || p.Server != tt.want {
				t.Errorf("Selected(%q) = %+v, %v, %v", tt.pick, p, ok, err)
			}
		})
	}
	if got := cfg.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
}
