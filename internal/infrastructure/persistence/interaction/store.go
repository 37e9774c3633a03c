// Package interaction keeps the chat prompts posted for each record and
// department in a bbolt file, so they can be invalidated after a restart.
package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/application/port"
	"github.com/garyjia/budget-approval/internal/domain/entity"
)

const bucketName = "pending_interactions"

// BoltStore implements port.InteractionStore using BoltDB
type BoltStore struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// NewBoltStore opens (or creates) the store at path
func NewBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w: %w", entity.ErrStorage, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w: %w", entity.ErrStorage, err)
	}

	return &BoltStore{db: db, logger: logger}, nil
}

// Save appends the messages of p to the stored interaction for its key
func (s *BoltStore) Save(ctx context.Context, p entity.PendingInteraction) error {
	key := []byte(p.Key().String())

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))

		merged := entity.PendingInteraction{RecordID: p.RecordID, Department: p.Department}
		if data := bucket.Get(key); data != nil {
			if err := json.Unmarshal(data, &merged); err != nil {
				return fmt.Errorf("unmarshaling interaction: %w", err)
			}
		}
		merged.Messages = append(merged.Messages, p.Messages...)

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshaling interaction: %w", err)
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		s.logger.Error("Failed to save pending interaction", zap.String("key", string(key)), zap.Error(err))
		return fmt.Errorf("save interaction %s: %w: %w", key, entity.ErrStorage, err)
	}
	return nil
}

// Get returns the interaction stored under key, or nil
func (s *BoltStore) Get(ctx context.Context, key entity.InteractionKey) (*entity.PendingInteraction, error) {
	var p *entity.PendingInteraction
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key.String()))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("get interaction %s: %w: %w", key, entity.ErrStorage, err)
	}
	return p, nil
}

// Delete removes the key; a missing key is not an error
func (s *BoltStore) Delete(ctx context.Context, key entity.InteractionKey) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key.String()))
	})
	if err != nil {
		return fmt.Errorf("delete interaction %s: %w: %w", key, entity.ErrStorage, err)
	}
	return nil
}

// Close closes the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Verify interface compliance
var _ port.InteractionStore = (*BoltStore)(nil)
