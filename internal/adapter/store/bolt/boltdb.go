// Package bolt persists the vector index in a single bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"qualrag/internal/domain"
)

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
	keyManifest   = []byte("manifest")
)

// Backend stores one index build in a single bbolt file. The file is
// opened per operation and closed before returning, so a long-running server
// never holds the lock between builds.
type Backend struct {
	path        string
	openTimeout time.Duration
}

func NewBackend(path string, openTimeout time.Duration) *Backend {
	if openTimeout <= 0 {
		openTimeout = 2 * time.Second
	}
	return &Backend{path: path, openTimeout: openTimeout}
}

func (b *Backend) Location() string {
	return b.path
}

func (b *Backend) Read(ctx context.Context) (domain.Manifest, []domain.IndexRecord, error) {
	var m domain.Manifest
	if err := ctx.Err(); err != nil {
		return m, nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	info, err := os.Stat(b.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return m, nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, b.path)
	case err != nil:
		return m, nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	case info.Size() == 0:
		return m, nil, fmt.Errorf("%w: %s is empty", domain.ErrIndexNotFound, b.path)
	}

	db, err := bbolt.Open(b.path, 0600, &bbolt.Options{Timeout: b.openTimeout, ReadOnly: true})
	if err != nil {
		return m, nil, classifyBoltErr(b.path, err)
	}
	defer db.Close()

	var records []domain.IndexRecord
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("%w: no manifest in %s", domain.ErrIndexNotFound, b.path)
		}
		data := meta.Get(keyManifest)
		if data == nil {
			return fmt.Errorf("%w: no manifest in %s", domain.ErrIndexNotFound, b.path)
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("%w: manifest: %w", domain.ErrCorruptIndex, err)
		}

		recs := tx.Bucket(bucketRecords)
		if recs == nil {
			return fmt.Errorf("%w: records bucket missing", domain.ErrCorruptIndex)
		}
		records = make([]domain.IndexRecord, 0, recs.Stats().KeyN)
		return recs.ForEach(func(k, v []byte) error {
			var r domain.IndexRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("%w: record %s: %w", domain.ErrCorruptIndex, k, err)
			}
			if r.ID != string(k) {
				return fmt.Errorf("%w: record key %s holds id %s", domain.ErrCorruptIndex, k, r.ID)
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return domain.Manifest{}, nil, err
	}
	return m, records, nil
}

// Write replaces the stored build. The build is written to a staging file
// next to the index and renamed over it, so a crash or an unreadable old file
// never blocks the new build.
func (b *Backend) Write(ctx context.Context, m domain.Manifest, records []domain.IndexRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	staging := b.stagingPath()
	db, err := bbolt.Open(staging, 0600, &bbolt.Options{Timeout: b.openTimeout})
	if err != nil && errors.Is(classifyBoltErr(staging, err), domain.ErrCorruptIndex) {
		// leftover from an interrupted write
		if rmErr := os.Remove(staging); rmErr != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, rmErr)
		}
		db, err = bbolt.Open(staging, 0600, &bbolt.Options{Timeout: b.openTimeout})
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, staging, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		recs, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRecords, err)
		}
		for _, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := recs.Put([]byte(r.ID), data); err != nil {
				return err
			}
		}

		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return meta.Put(keyManifest, data)
	})
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(staging, b.path)
	}
	if err != nil {
		os.Remove(staging) //nolint:errcheck
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *Backend) stagingPath() string {
	return b.path + ".tmp"
}

func (b *Backend) Reset() error {
	for _, p := range []string{b.path, b.stagingPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
	}
	return nil
}

func classifyBoltErr(path string, err error) error {
	switch {
	case errors.Is(err, bbolt.ErrInvalid),
		errors.Is(err, bbolt.ErrChecksum),
		errors.Is(err, bbolt.ErrVersionMismatch):
		return fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	case errors.Is(err, bbolt.ErrTimeout):
		return fmt.Errorf("%w: %s is locked: %w", domain.ErrStorageUnavailable, path, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, path, err)
}
