package connection

import (
	"path/filepath"
	"testing"

	"github.com/yndnr/gridwire-go/internal/cli/config"
)

func TestResolve(t *testing.T) {
	cfg := config.Default()
	cfg.Current = "prod"
	cfg.Profiles["prod"] = config.Profile{Server: "10.0.0.5:7080", Token: "gwat_prod", CAFile: "/ca.pem"}
	cfg.Profiles["dev"] = config.Profile{Server: "dev:7080"}
	m := NewManager(cfg, filepath.Join(t.TempDir(), "cli.yaml"))

	tests := []struct {
		name     string
		profile  string
		override Connection
		want     Connection
		wantErr  bool
	}{
		{
			name: "current profile",
			want: Connection{Name: "prod", Server: "10.0.0.5:7080", Token: "gwat_prod", CAFile: "/ca.pem"},
		},
		{
			name:     "flag overrides profile",
			override: Connection{Server: "other:7080", Subject: "s"},
			want:     Connection{Name: "prod", Server: "other:7080", Token: "gwat_prod", CAFile: "/ca.pem", Subject: "s"},
		},
		{
			name:    "named profile",
			profile: "dev",
			want:    Connection{Name: "dev", Server: "dev:7080"},
		},
		{name: "unknown profile", profile: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Resolve(tt.profile, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveWithoutProfiles(t *testing.T) {
	m := NewManager(nil, "")
	got, err := m.Resolve("", Connection{})
	if err != nil || got.Server != config.DefaultServer {
		t.Errorf("Resolve() = %+v, %v", got, err)
	}
}

func TestSaveUseRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	m := NewManager(config.Default(), path)

	if err := m.Save(Connection{Name: "a"}); err == nil {
		t.Error("Save() without server should fail")
	}
	if err := m.Save(Connection{Name: "a", Server: "a:7080"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := m.Save(Connection{Name: "b", Server: "b:7080"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if m.Config().Current != "a" {
		t.Errorf("Current = %q, want first saved profile", m.Config().Current)
	}
	if err := m.Use("b"); err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if err := m.Use("zzz"); err == nil {
		t.Error("Use() of unknown profile should fail")
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Current != "b" || len(loaded.Profiles) != 2 {
		t.Errorf("persisted config = %+v", loaded)
	}

	if err := m.Remove("b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if m.Config().Current != "" {
		t.Errorf("Current = %q after removing it", m.Config().Current)
	}
}
