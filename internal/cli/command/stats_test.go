package command

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestStatsList(t *testing.T) {
	env := newTestEnv(t)
	env.server.reply("GET /v1/statistics", statisticsView{Caches: []cacheStats{
		{Cache: "orders", Enabled: true},
		{Cache: "users", Clears: 2},
	}})
	if err := env.run(t, subcommand(t, StatsCommand(), "list"), statsList); err != nil {
		t.Fatalf("statsList() error = %v", err)
	}
	out := env.out.String()
	for _, want := range []string{"CACHE", "orders", "true", "users"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsOperations(t *testing.T) {
	tests := []struct {
		sub  string
		path string
	}{
		{"enable", "/v1/statistics/enable"},
		{"disable", "/v1/statistics/disable"},
		{"clear", "/v1/statistics/clear"},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			env := newTestEnv(t)
			env.server.handle("POST "+tt.path, func(w http.ResponseWriter, r *http.Request) {
				jsonResponse(w, http.StatusOK, statisticsView{Caches: []cacheStats{{Cache: "orders", Enabled: tt.sub == "enable"}}})
			})
			cmd := subcommand(t, StatsCommand(), tt.sub)
			if err := env.run(t, cmd, cmd.Action, "-o", "json", "orders", "users"); err != nil {
				t.Fatalf("%s error = %v", tt.sub, err)
			}
			_, body := env.server.lastRequest()
			var req cachesRequest
			if err := json.Unmarshal([]byte(body), &req); err != nil || len(req.Caches) != 2 {
				t.Errorf("request body = %s", body)
			}
			if !strings.Contains(env.out.String(), `"cache": "orders"`) {
				t.Errorf("output = %s", env.out.String())
			}
		})
	}
}

func TestStatsOperationNeedsCaches(t *testing.T) {
	env := newTestEnv(t)
	cmd := subcommand(t, StatsCommand(), "clear")
	if err := env.run(t, cmd, cmd.Action); err == nil {
		t.Error("clear without caches should fail")
	}
	if req, _ := env.server.lastRequest(); req != nil {
		t.Error("no request should be sent")
	}
}
