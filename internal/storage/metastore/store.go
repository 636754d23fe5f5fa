package metastore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("metastore: closed")

var typePrefix = []byte("meta/type/")

// TypeMeta describes one registered binary type.
type TypeMeta struct {
	TypeID       int32     `cbor:"1,keyasint" json:"type_id"`
	TypeName     string    `cbor:"2,keyasint" json:"type_name"`
	Fields       []string  `cbor:"3,keyasint,omitempty" json:"fields,omitempty"`
	AffinityKey  string    `cbor:"4,keyasint,omitempty" json:"affinity_key,omitempty"`
	RegisteredAt time.Time `cbor:"5,keyasint" json:"registered_at"`
}

// Store is a Badger-backed TypeMeta store.
type Store struct {
	db      *badger.DB
	cfg     Config
	log     logger.Logger
	metrics *Metrics
	closed  atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens or creates the store.
func Open(cfg Config, log logger.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("metastore: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "metastore")

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{log: log}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("metastore: open db: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}

	log.Info("metastore opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)
	return s, nil
}

func typeKey(id int32) []byte {
	key := make([]byte, len(typePrefix)+4)
	copy(key, typePrefix)
	binary.BigEndian.PutUint32(key[len(typePrefix):], uint32(id))
	return key
}

// Put stores meta, replacing any previous entry for the same type id.
func (s *Store) Put(ctx context.Context, meta TypeMeta) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if meta.RegisteredAt.IsZero() {
		meta.RegisteredAt = time.Now().UTC()
	}
	value, err := cbor.Marshal(meta)
	if err != nil {
		return fmt.Errorf("metastore: encode type %d: %w", meta.TypeID, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(typeKey(meta.TypeID), value)
	}); err != nil {
		return err
	}
	s.metrics.typeStored()
	return nil
}

// Get returns the metadata for id, or domain.ErrMetadataNotFound.
func (s *Store) Get(ctx context.Context, id int32) (TypeMeta, error) {
	if s.closed.Load() {
		return TypeMeta{}, ErrClosed
	}
	var meta TypeMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(typeKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrMetadataNotFound.Detailf("type %d", id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &meta)
		})
	})
	return meta, err
}

// Has reports whether metadata for id exists.
func (s *Store) Has(ctx context.Context, id int32) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, domain.ErrMetadataNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Remove deletes the metadata for id and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int32) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := typeKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, err
	}
	if existed {
		s.metrics.typeRemoved()
	}
	return existed, nil
}

// List returns every stored type ordered by id.
func (s *Store) List(ctx context.Context) ([]TypeMeta, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []TypeMeta
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = typePrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var meta TypeMeta
			if err := it.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("metastore: decode %x: %w", it.Item().Key(), err)
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out, nil
}

// GC runs value log garbage collection until nothing more is rewritten
// and returns the number of rewrite cycles.
func (s *Store) GC(ctx context.Context) (int, error) {
	if s.cfg.InMemory {
		return 0, nil
	}
	cycles := 0
	for {
		if err := ctx.Err(); err != nil {
			return cycles, err
		}
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return cycles, fmt.Errorf("metastore: gc: %w", err)
		}
		cycles++
	}
	s.metrics.gcRan()
	return cycles, nil
}

// Close stops background work and closes the database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("metastore: close db: %w", err)
	}
	s.log.Info("metastore closed")
	return nil
}

func (s *Store) gcLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if n, err := s.GC(ctx); err != nil {
				s.log.Error("value log gc failed", "error", err)
			} else if n > 0 {
				s.log.Debug("value log gc completed", "cycles", n)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
