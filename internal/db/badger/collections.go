package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/Dev7-web/tendorlelo/internal/db"
)

// SAdd adds members to a set.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	err := s.update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.Set(setMemberKey(key, m), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SRem removes members from a set.
func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	err := s.update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.Delete(setMemberKey(key, m)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpSRem, Err: err}
	}
	return nil
}

// SMembers lists set members in key order.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanMembers(txn, key)
		return err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return out, nil
}

func scanMembers(txn *badger.Txn, key string) ([]string, error) {
	prefix := setPrefix(key)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var members []string
	for it.Rewind(); it.Valid(); it.Next() {
		members = append(members, string(it.Item().Key()[len(prefix):]))
	}
	return members, nil
}

// PushCapped prepends value and trims the list to maxLen entries atomically.
func (s *Store) PushCapped(_ context.Context, key string, value []byte, maxLen int) error {
	if maxLen <= 0 {
		return fmt.Errorf("maxLen must be positive, got %d", maxLen)
	}
	err := s.update(func(txn *badger.Txn) error {
		items, err := readList(txn, key)
		if err != nil {
			return err
		}
		items = append([][]byte{value}, items...)
		if len(items) > maxLen {
			items = items[:maxLen]
		}
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encode list: %w", err)
		}
		return txn.Set(listKey(key), data)
	})
	if err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// LRange returns entries between start and stop inclusive; negative indexes
// count from the tail, as in Redis.
func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	var items [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		items, err = readList(txn, key)
		return err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}

	n := int64(len(items))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	stop = min(stop, n-1)
	if start > stop || start >= n {
		return [][]byte{}, nil
	}
	return items[start : stop+1], nil
}

func readList(txn *badger.Txn, key string) ([][]byte, error) {
	item, err := txn.Get(listKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items [][]byte
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &items)
	})
	if err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}
