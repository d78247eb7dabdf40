package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/reqmatch/storage"
)

// orderedStore keeps records retrievable both by natural identifier and in
// insertion order. Each record is stored under a sequence-numbered key and
// indexed by its identifier.
type orderedStore[T any] struct {
	backend     *Backend
	seq         *badger.Sequence
	prefix      string
	indexPrefix string
	keyOf       func(*T) string
	marshal     func(*T) []byte
	unmarshal   func([]byte) (*T, error)

	// serializes writers so sequence order matches commit order
	mu sync.Mutex
}

func (s *orderedStore[T]) close() error {
	return s.seq.Release()
}

func (s *orderedStore[T]) add(ctx context.Context, items ...*T) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := s.put(tx, items); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// put stages items in tx without committing. The caller holds s.mu.
func (s *orderedStore[T]) put(tx *badger.Txn, items []*T) error {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := s.keyOf(item)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q repeated in batch", storage.ErrDuplicateKey, id)
		}
		seen[id] = struct{}{}

		indexKey := makeIndexKey(s.indexPrefix, id)
		if _, err := tx.Get(indexKey); err == nil {
			return fmt.Errorf("%w: %q", storage.ErrDuplicateKey, id)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		next, err := s.seq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if next == 0 {
			next, err = s.seq.Next()
			if err != nil {
				return err
			}
		}

		if err := tx.Set(makeSeqKey(s.prefix, next), s.marshal(item)); err != nil {
			return err
		}
		if err := tx.Set(indexKey, uint64Bytes(next)); err != nil {
			return err
		}
	}
	return nil
}

func (s *orderedStore[T]) get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *T
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeIndexKey(s.indexPrefix, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var seq uint64
		if err := item.Value(func(val []byte) error {
			seq, err = bytesUint64(val)
			return err
		}); err != nil {
			return err
		}

		record, err := tx.Get(makeSeqKey(s.prefix, seq))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return record.Value(func(val []byte) error {
			result, err = s.unmarshal(val)
			return err
		})
	}, false)
	return result, err
}

func (s *orderedStore[T]) all(ctx context.Context) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := []*T{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = scanPrefix(s.prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *T
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = s.unmarshal(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *orderedStore[T]) count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		n = countPrefix(tx, scanPrefix(s.prefix))
		return nil
	}, false)
	return n, err
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: sequence index of %d bytes", storage.ErrTruncatedData, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
