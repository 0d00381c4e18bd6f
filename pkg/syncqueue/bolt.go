package syncqueue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const actionsBucket = "pending_actions"

// Bolt is a Queue backed by a bbolt database file. Keys are
// big-endian bucket sequence numbers, so a cursor scan yields actions
// in enqueue order and entries survive restarts.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) a bbolt-backed queue at path.
func OpenBolt(path string) (*Bolt, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("queue path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(actionsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create actions bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Enqueue appends the action, assigning its ID and EnqueuedAt.
func (b *Bolt) Enqueue(ctx context.Context, action PendingAction) (PendingAction, error) {
	if err := ctx.Err(); err != nil {
		return PendingAction{}, err
	}
	if strings.TrimSpace(action.URL) == "" {
		return PendingAction{}, fmt.Errorf("action url is required")
	}
	if strings.TrimSpace(action.Method) == "" {
		return PendingAction{}, fmt.Errorf("action method is required")
	}

	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.EnqueuedAt.IsZero() {
		action.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(action)
	if err != nil {
		return PendingAction{}, fmt.Errorf("marshal action: %w", err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(actionsBucket))
		if bucket == nil {
			return fmt.Errorf("actions bucket is missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return bucket.Put(seqKey(seq), payload)
	})
	if err != nil {
		return PendingAction{}, err
	}

	return action, nil
}

// ListPending returns all queued actions in enqueue order.
func (b *Bolt) ListPending(ctx context.Context) ([]PendingAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var actions []PendingAction
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(actionsBucket))
		if bucket == nil {
			return fmt.Errorf("actions bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var action PendingAction
			if err := json.Unmarshal(payload, &action); err != nil {
				return fmt.Errorf("unmarshal action: %w", err)
			}
			actions = append(actions, action)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return actions, nil
}

// Remove deletes the action with the given id.
func (b *Bolt) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(actionsBucket))
		if bucket == nil {
			return fmt.Errorf("actions bucket is missing")
		}

		cursor := bucket.Cursor()
		for k, payload := cursor.First(); k != nil; k, payload = cursor.Next() {
			var action PendingAction
			if err := json.Unmarshal(payload, &action); err != nil {
				return fmt.Errorf("unmarshal action: %w", err)
			}
			if action.ID == id {
				return bucket.Delete(k)
			}
		}
		return ErrNotFound
	})
}

// Purge deletes every queued action.
func (b *Bolt) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(actionsBucket)); err != nil {
			return fmt.Errorf("delete actions bucket: %w", err)
		}
		_, err := tx.CreateBucket([]byte(actionsBucket))
		return err
	})
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
