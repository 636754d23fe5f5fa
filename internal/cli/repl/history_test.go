package repl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHistoryAdd(t *testing.T) {
	h := NewHistory("", 3)
	for _, l := range []string{"a", "b", "b", "c", "d"} {
		h.Add(l)
	}
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Entries() = %q", got)
	}
	if h.Get(0) != "d" || h.Get(2) != "b" || h.Get(3) != "" || h.Get(-1) != "" {
		t.Errorf("Get() returned unexpected entries")
	}
}

func TestHistoryPersistence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sub", "history")
	h := NewHistory(file, 0)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() of missing file error = %v", err)
	}
	h.Add("cluster")
	h.Add("metadata list")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if info, err := os.Stat(file); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("history file stat = %v, %v", info, err)
	}

	loaded := NewHistory(file, 0)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Entries(); !reflect.DeepEqual(got, []string{"cluster", "metadata list"}) {
		t.Errorf("Entries() = %q", got)
	}
}

func TestHistoryInMemory(t *testing.T) {
	h := NewHistory("", 0)
	h.Add("x")
	if err := h.Save(); err != nil {
		t.Errorf("Save() without file error = %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load() without file error = %v", err)
	}
}
