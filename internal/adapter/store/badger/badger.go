// Package badger persists the vector index in a badger directory.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"qualrag/internal/domain"
)

var (
	prefixRecord = []byte("rec:")
	keyManifest  = []byte("meta:manifest")
)

// Backend stores one index build in a badger directory.
type Backend struct {
	dir    string
	logger *slog.Logger
}

func NewBackend(dir string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{dir: dir, logger: logger.With("component", "badger")}
}

// badgerLogger adapts slog.Logger to badgerdb.Logger. Badger's info chatter is
// demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badgerdb.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (b *Backend) Location() string {
	return b.dir
}

func (b *Backend) open() (*badgerdb.DB, error) {
	info, err := os.Stat(b.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		if err := os.MkdirAll(b.dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrStorageUnavailable, b.dir)
	}

	opts := badgerdb.DefaultOptions(b.dir)
	opts.Logger = &badgerLogger{logger: b.logger}
	opts.Compression = options.None

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return db, nil
}

func (b *Backend) Read(ctx context.Context) (domain.Manifest, []domain.IndexRecord, error) {
	var m domain.Manifest
	if err := ctx.Err(); err != nil {
		return m, nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if _, err := os.Stat(b.dir); errors.Is(err, os.ErrNotExist) {
		return m, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, b.dir)
	}

	db, err := b.open()
	if err != nil {
		return m, nil, err
	}
	defer db.Close()

	var records []domain.IndexRecord
	err = db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyManifest)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("%w: no manifest in %s", domain.ErrIndexNotFound, b.dir)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return fmt.Errorf("%w: manifest: %w", domain.ErrCorruptIndex, err)
		}

		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefixRecord); it.ValidForPrefix(prefixRecord); it.Next() {
			var r domain.IndexRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("%w: record %s: %w", domain.ErrCorruptIndex, it.Item().Key(), err)
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return domain.Manifest{}, nil, err
	}
	return m, records, nil
}

// Write replaces the stored build in one transaction.
func (b *Backend) Write(ctx context.Context, m domain.Manifest, records []domain.IndexRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(txn *badgerdb.Txn) error {
		var stale [][]byte
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Seek(prefixRecord); it.ValidForPrefix(prefixRecord); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		for _, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			key := append(append([]byte{}, prefixRecord...), r.ID...)
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(keyManifest, data)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *Backend) Reset() error {
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}
