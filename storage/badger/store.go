package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/kbingest/storage"
)

// Store implements storage.VectorStore on BadgerDB.
//
// Each collection name points at a generation number and rows live under
// a key prefix derived from that generation. Promote swaps the pointer in
// one transaction and drops the superseded prefix afterwards, so readers
// never observe a half-replaced collection.
type Store struct {
	backend *Backend
	ownsDB  bool
	genSeq  *badger.Sequence
	logger  *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a Store on an open backend. The caller keeps ownership
// of backend and must close it after the Store.
func NewStore(backend *Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("badger: backend required")
	}
	genSeq, err := backend.GetSequence(generationSeq)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend: backend,
		genSeq:  genSeq,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			genSeq.Release()
			return nil, optErr
		}
	}
	s.logger = s.logger.With("component", "badger-store")
	return s, nil
}

// Open opens (or creates) a database at path and returns a Store that
// closes it on Close.
func Open(path string, inMemory bool, opts ...Option) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// Close releases the generation sequence and, for stores created by Open,
// the database.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	err := s.genSeq.Release()
	if s.ownsDB {
		err = errors.Join(err, s.backend.Close())
	}
	return err
}

// CreateCollection creates an empty collection.
func (s *Store) CreateCollection(ctx context.Context, name string) (storage.Collection, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}

	gen, err := s.nextGeneration()
	if err != nil {
		return nil, err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(name)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionExists, name)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, encodeGeneration(gen)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("created collection", "collection", name, "generation", gen)
	return &collection{store: s, name: name}, nil
}

// GetCollection opens an existing collection.
func (s *Store) GetCollection(ctx context.Context, name string) (storage.Collection, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	if _, err := s.generation(name); err != nil {
		return nil, err
	}
	return &collection{store: s, name: name}, nil
}

// DeleteCollection removes a collection. Missing collections are ignored.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.check(name); err != nil {
		return err
	}

	var (
		gen   uint64
		found bool
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(name)
		var err error
		gen, err = readGeneration(tx, key)
		if errors.Is(err, storage.ErrCollectionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil || !found {
		return err
	}

	s.logger.Debug("deleted collection", "collection", name, "generation", gen)
	return s.backend.DropPrefix(makeRowPrefix(gen))
}

// Promote points to at from's rows and removes from.
func (s *Store) Promote(ctx context.Context, from, to string) error {
	if err := s.check(from); err != nil {
		return err
	}
	if err := s.check(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: cannot promote %s onto itself", storage.ErrInvalidCollectionName, from)
	}

	var (
		fromGen, oldGen uint64
		hadOld          bool
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		fromKey := makeCollectionKey(from)
		toKey := makeCollectionKey(to)

		var err error
		fromGen, err = readGeneration(tx, fromKey)
		if err != nil {
			return err
		}
		oldGen, err = readGeneration(tx, toKey)
		switch {
		case err == nil:
			hadOld = true
		case !errors.Is(err, storage.ErrCollectionNotFound):
			return err
		}

		if err := tx.Set(toKey, encodeGeneration(fromGen)); err != nil {
			return err
		}
		if err := tx.Delete(fromKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	s.logger.Info("promoted collection", "from", from, "to", to, "generation", fromGen)
	if !hadOld {
		return nil
	}
	// The swap already happened; a failed cleanup only leaves unreachable keys.
	if err := s.backend.DropPrefix(makeRowPrefix(oldGen)); err != nil {
		s.logger.Warn("failed to drop superseded rows", "collection", to, "generation", oldGen, "err", err)
	}
	return nil
}

// generation reads the current generation of name.
func (s *Store) generation(name string) (uint64, error) {
	var gen uint64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		gen, err = readGeneration(tx, makeCollectionKey(name))
		return err
	}, false)
	return gen, err
}

func (s *Store) nextGeneration() (uint64, error) {
	gen, err := s.genSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if gen == 0 {
		return s.genSeq.Next()
	}
	return gen, nil
}

func (s *Store) check(name string) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if strings.TrimSpace(name) == "" {
		return storage.ErrInvalidCollectionName
	}
	return nil
}

func readGeneration(tx *badger.Txn, key []byte) (uint64, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, key[len(collectionPrefix)+1:])
	}
	if err != nil {
		return 0, err
	}
	var gen uint64
	err = item.Value(func(val []byte) error {
		var err error
		gen, err = decodeGeneration(val)
		return err
	})
	return gen, err
}
