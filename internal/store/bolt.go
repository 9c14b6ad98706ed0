package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

var recordsBucket = []byte("local_products")

// BoltStore implements LocalStore on an embedded bbolt file.
// Keys are big-endian sequence numbers, so cursor order is insertion order.
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, domainerrors.Storage("store: open bolt file", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, domainerrors.Storage("store: create bolt bucket", err)
	}
	return &BoltStore{
		db:     db,
		logger: logger.Named("store").With(zap.String("driver", "bolt")),
		now:    time.Now,
	}, nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// Create stores rec under the bucket's next sequence number.
func (s *BoltStore) Create(ctx context.Context, rec *domain.LocalProductRecord) error {
	if rec == nil {
		return domainerrors.Storage("store: Create called with nil record", nil)
	}
	if err := ctx.Err(); err != nil {
		return domainerrors.Storage("store: Create canceled", err)
	}

	stored := *rec
	stored.CreatedAt = s.now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		stored.ID = int64(seq)
		data, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		return b.Put(itob(stored.ID), data)
	})
	if err != nil {
		return domainerrors.Storage("store: Create failed to write record", err)
	}

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	s.logger.Debug("local record created", zap.Int64("id", rec.ID), zap.String("name", rec.Name))
	return nil
}

// ListAll returns every record in key order.
func (s *BoltStore) ListAll(ctx context.Context) ([]domain.LocalProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll canceled", err)
	}

	records := make([]domain.LocalProductRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, v []byte) error {
			var rec domain.LocalProductRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return []domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll failed to read records", err)
	}
	return records, nil
}

// Delete removes the record stored under id; bbolt treats a missing key as a no-op.
func (s *BoltStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Storage("store: Delete canceled", err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete(itob(id))
	})
	if err != nil {
		return domainerrors.Storage("store: Delete failed", err)
	}
	return nil
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return domainerrors.Storage("store: close bolt", err)
	}
	return nil
}
