package metastore

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/gridwire-go/internal/core/domain"
)

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreBasicOperations(t *testing.T) {
	s := openTestStore(t, Config{InMemory: true})
	ctx := context.Background()

	metas := []TypeMeta{
		{TypeID: 42, TypeName: "Person", Fields: []string{"name", "age"}},
		{TypeID: -7, TypeName: "Negative"},
		{TypeID: 3, TypeName: "Order", AffinityKey: "customerId"},
	}
	for _, m := range metas {
		if err := s.Put(ctx, m); err != nil {
			t.Fatalf("Put(%d) error = %v", m.TypeID, err)
		}
	}

	t.Run("Get", func(t *testing.T) {
		got, err := s.Get(ctx, 42)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.TypeName != "Person" || len(got.Fields) != 2 || got.RegisteredAt.IsZero() {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, 1000); !errors.Is(err, domain.ErrMetadataNotFound) {
			t.Errorf("Get() error = %v, want ErrMetadataNotFound", err)
		}
	})

	t.Run("List ordered by id", func(t *testing.T) {
		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []int32{-7, 3, 42}
		if len(list) != len(want) {
			t.Fatalf("List() returned %d entries, want %d", len(list), len(want))
		}
		for i, id := range want {
			if list[i].TypeID != id {
				t.Errorf("List()[%d].TypeID = %d, want %d", i, list[i].TypeID, id)
			}
		}
	})

	t.Run("Remove", func(t *testing.T) {
		existed, err := s.Remove(ctx, 3)
		if err != nil || !existed {
			t.Fatalf("Remove() = %v, %v; want true, nil", existed, err)
		}
		existed, err = s.Remove(ctx, 3)
		if err != nil || existed {
			t.Fatalf("second Remove() = %v, %v; want false, nil", existed, err)
		}
		if has, _ := s.Has(ctx, 3); has {
			t.Error("Has() after Remove = true")
		}
	})
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0
	ctx := context.Background()

	s, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Put(ctx, TypeMeta{TypeID: 9, TypeName: "Durable"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s = openTestStore(t, cfg)
	got, err := s.Get(ctx, 9)
	if err != nil || got.TypeName != "Durable" {
		t.Fatalf("Get() after reopen = %+v, %v", got, err)
	}
}

func TestStoreClosed(t *testing.T) {
	s, err := Open(Config{InMemory: true}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Put(context.Background(), TypeMeta{TypeID: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Put() after Close error = %v, want ErrClosed", err)
	}
}

func TestStoreMetrics(t *testing.T) {
	s := openTestStore(t, Config{InMemory: true})
	registry := prometheus.NewRegistry()
	if err := s.RegisterMetrics(registry); err != nil {
		t.Fatalf("RegisterMetrics() error = %v", err)
	}
	ctx := context.Background()

	_ = s.Put(ctx, TypeMeta{TypeID: 1})
	_, _ = s.Remove(ctx, 1)
	_, _ = s.Remove(ctx, 1)

	if got := testutil.ToFloat64(s.metrics.stored); got != 1 {
		t.Errorf("stored = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.removed); got != 1 {
		t.Errorf("removed = %v, want 1", got)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Fatal("Open() without dir should fail")
	}
}
