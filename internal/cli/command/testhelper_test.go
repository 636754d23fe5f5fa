package command

import (
	"bytes"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gridwire-go/internal/cli/config"
	"github.com/yndnr/gridwire-go/internal/cli/connection"
)

// mockServer is an admin API stand-in keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
	bodies   []string
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		m.mu.Lock()
		m.requests = append(m.requests, r)
		m.bodies = append(m.bodies, body.String())
		h, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "GW-SYS-4040", "no route "+r.URL.Path)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = h
}

// reply registers a handler returning data in a success envelope.
func (m *mockServer) reply(pattern string, data any) {
	m.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, data)
	})
}

func (m *mockServer) lastRequest() (*http.Request, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil, ""
	}
	n := len(m.requests) - 1
	return m.requests[n], m.bodies[n]
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"data":       data,
	})
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
	})
}

// testEnv is a CLI context wired to a mock server and a temporary
// profile file.
type testEnv struct {
	server  *mockServer
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	cfgPath string
	mgr     *connection.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	return &testEnv{
		server:  newMockServer(t),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		cfgPath: path,
		mgr:     connection.NewManager(config.Default(), path),
	}
}

// context builds a context for cmd. Global and command flags share one
// flag set; positional arguments go last.
func (e *testEnv) context(t *testing.T, cmd *cli.Command, args ...string) *cli.Context {
	t.Helper()
	app := &cli.App{
		Name:      "gridwire-cli",
		Flags:     globalFlags(),
		Writer:    e.out,
		ErrWriter: e.errOut,
		Metadata:  map[string]any{connMgrKey: e.mgr},
	}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if cmd != nil {
		for _, f := range cmd.Flags {
			if err := f.Apply(set); err != nil {
				t.Fatal(err)
			}
		}
	}
	full := append([]string{"--server", e.server.URL, "--config", e.cfgPath}, args...)
	if err := set.Parse(full); err != nil {
		t.Fatalf("parse %q: %v", full, err)
	}
	return cli.NewContext(app, set, nil)
}

// run invokes action with a context for cmd.
func (e *testEnv) run(t *testing.T, cmd *cli.Command, action cli.ActionFunc, args ...string) error {
	t.Helper()
	return action(e.context(t, cmd, args...))
}

// subcommand finds a subcommand of cmd by name.
func subcommand(t *testing.T, cmd *cli.Command, name string) *cli.Command {
	t.Helper()
	for _, s := range cmd.Subcommands {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("%s has no subcommand %s", cmd.Name, name)
	return nil
}
