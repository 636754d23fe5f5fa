package command

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestShellRunsCommandsAgainstSameNode(t *testing.T) {
	env := newTestEnv(t)
	env.server.reply("GET /health", healthView{Status: "healthy", Version: "1.0.0"})

	app := App()
	app.Reader = strings.NewReader("system health\nshell\nexit\n")
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out

	args := []string{"gridwire-cli", "--config", env.cfgPath, "--server", env.server.URL, "shell", "--no-history"}
	if err := app.Run(args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "is healthy (version 1.0.0)") {
		t.Errorf("shell did not run system health:\n%s", text)
	}
	if !strings.Contains(text, "already in interactive mode") {
		t.Errorf("nested shell should be refused:\n%s", text)
	}
}

func TestRedactLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cluster", "cluster"},
		{"--token gwat_0123456789abcdef cluster", "--token gwat_012...def cluster"},
		{"--token=plain stats list", "--token=*** stats list"},
	}
	for _, tt := range tests {
		if got := redactLine(tt.in); got != tt.want {
			t.Errorf("redactLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandPaths(t *testing.T) {
	got := commandPaths(App().Commands, "")
	for _, want := range []string{"cluster", "metadata remove", "stats clear", "profile use"} {
		found := false
		for _, p := range got {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("commandPaths() missing %q", want)
		}
	}
	if !reflect.DeepEqual(commandPaths(nil, "x"), []string(nil)) {
		t.Error("no commands should yield no paths")
	}
}
