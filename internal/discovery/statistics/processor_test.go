package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/wire"
)

func newCluster(t *testing.T, n int) []*Processor {
	t.Helper()
	hub := discovery.NewMemoryHub()
	procs := make([]*Processor, n)
	for i := range procs {
		payloads := discovery.NewPayloadRegistry()
		if err := RegisterPayloads(payloads); err != nil {
			t.Fatalf("RegisterPayloads() error = %v", err)
		}
		m, err := discovery.NewCBORMarshaller(payloads)
		if err != nil {
			t.Fatalf("NewCBORMarshaller() error = %v", err)
		}
		reg := wire.NewRegistry()
		if err := discovery.RegisterMessages(reg, m); err != nil {
			t.Fatalf("RegisterMessages() error = %v", err)
		}
		if err := RegisterMessages(reg); err != nil {
			t.Fatalf("RegisterMessages() error = %v", err)
		}
		ring, err := discovery.NewRing(discovery.RingConfig{
			Transport:  hub.Join(uuid.New()),
			Registry:   reg,
			Marshaller: m,
		})
		if err != nil {
			t.Fatalf("NewRing() error = %v", err)
		}
		procs[i] = NewProcessor(ring, NewTable(), m, nil)
		ring.AddListener(procs[i])
		ring.Start()
		t.Cleanup(ring.Stop)
	}
	return procs
}

func TestSetEnabledAcrossCluster(t *testing.T) {
	procs := newCluster(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := procs[1].SetEnabled(ctx, []string{"orders", "people"}, true, uuid.Nil); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if err := procs[2].SetEnabled(ctx, []string{"people"}, false, uuid.New()); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	for i, p := range procs {
		orders, _ := p.Table().Get("orders")
		people, _ := p.Table().Get("people")
		if !orders.Enabled || people.Enabled {
			t.Errorf("node %d: orders=%v people=%v", i, orders.Enabled, people.Enabled)
		}
	}
}

func TestClearAcrossCluster(t *testing.T) {
	procs := newCluster(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := procs[0].Clear(ctx, []string{"orders"}, uuid.Nil); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := procs[0].Clear(ctx, []string{"orders"}, uuid.New()); err != nil {
		t.Fatalf("wrapped Clear() error = %v", err)
	}
	for i, p := range procs {
		s, ok := p.Table().Get("orders")
		if !ok || s.Clears != 2 || s.ClearedAt.IsZero() {
			t.Errorf("node %d: %+v", i, s)
		}
	}
}

func TestRequestsNeedCaches(t *testing.T) {
	p := NewProcessor(nil, NewTable(), nil, nil)
	if err := p.SetEnabled(context.Background(), nil, true, uuid.Nil); !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("SetEnabled() error = %v, want ErrBadRequest", err)
	}
	if err := p.Clear(context.Background(), nil, uuid.Nil); !errors.Is(err, domain.ErrBadRequest) {
		t.Errorf("Clear() error = %v, want ErrBadRequest", err)
	}
}

func TestTableSnapshotOrdered(t *testing.T) {
	tbl := NewTable()
	tbl.SetEnabled([]string{"b", "a"}, true)
	tbl.Clear([]string{"c"})
	snap := tbl.Snapshot()
	if len(snap) != 3 || snap[0].Cache != "a" || snap[2].Cache != "c" {
		t.Fatalf("Snapshot() = %+v", snap)
	}
	if snap[2].Enabled || snap[2].Clears != 1 {
		t.Errorf("c = %+v", snap[2])
	}
}
