package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/entity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
)

var usersBucket = []byte("users")

// BoltStore is the embedded backend: bucket "users" holds one nested
// bucket per user key, whose keys are contact keys.
type BoltStore struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the database file at path.
func NewBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltStore(db), nil
}

func NewBoltStore(db *bbolt.DB) *BoltStore {
	return &BoltStore{db: db}
}

func (s *BoltStore) Upsert(ctx context.Context, userKey, contactKey string, c entity.Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		users, err := tx.CreateBucketIfNotExists(usersBucket)
		if err != nil {
			return err
		}
		b, err := users.CreateBucketIfNotExists([]byte(userKey))
		if err != nil {
			return err
		}
		return b.Put([]byte(contactKey), data)
	})
	return database.Wrap("contacts.upsert", err)
}

func (s *BoltStore) List(ctx context.Context, userKey string) ([]entity.Contact, error) {
	out := []entity.Contact{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		users := tx.Bucket(usersBucket)
		if users == nil {
			return nil
		}
		b := users.Bucket([]byte(userKey))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var c entity.Contact
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out = append(out, c)
			return nil
		})
	})
	if err != nil {
		return nil, database.Wrap("contacts.list", err)
	}
	return out, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
