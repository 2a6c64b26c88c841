package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/auditr/pkg/auditr/logging"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("history record not found")

// Records are stored under runPrefix + zero-padded nanosecond timestamp +
// "/" + ID so key order is chronological; idPrefix + ID points back at the
// record key.
const (
	runPrefix = "run/"
	idPrefix  = "id/"
)

var logger = logging.Get("history")

// Store is a badger-backed run log.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(rec *Record) []byte {
	return fmt.Appendf(nil, "%s%020d/%s", runPrefix, rec.Timestamp.UnixNano(), rec.ID)
}

// Put appends rec.
func (s *Store) Put(rec *Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding history record: %w", err)
	}
	key := runKey(rec)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set([]byte(idPrefix+rec.ID), key)
	})
	if err != nil {
		return fmt.Errorf("writing history record: %w", err)
	}
	logger.Debug("run recorded", "id", rec.ID, "operation", rec.Operation, "root", rec.Root)
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		ref, err := txn.Get([]byte(idPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := ref.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) })
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns up to limit records, newest first. A non-empty root keeps
// only runs against that directory; limit <= 0 means no limit.
func (s *Store) List(root string, limit int) ([]Record, error) {
	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(runPrefix + "\xff")); it.ValidForPrefix([]byte(runPrefix)); it.Next() {
			var rec Record
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
				return err
			}
			if root != "" && rec.Root != root {
				continue
			}
			records = append(records, rec)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

// Cleanup deletes records older than retentionDays and returns how many
// were removed. retentionDays <= 0 keeps everything.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	upper := fmt.Appendf(nil, "%s%020d", runPrefix, cutoff.UnixNano())

	var stale []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if string(item.Key()) >= string(upper) {
				break
			}
			var rec Record
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
				return err
			}
			stale = append(stale, rec)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning history: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range stale {
		if err := wb.Delete(runKey(&stale[i])); err != nil {
			return 0, err
		}
		if err := wb.Delete([]byte(idPrefix + stale[i].ID)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("deleting history: %w", err)
	}

	logger.Info("history cleaned", "removed", len(stale), "retention_days", retentionDays)
	return len(stale), nil
}
