package contact

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact/entity"
)

// Store is the per-user document collection.
type Store interface {
	Upsert(ctx context.Context, userKey, contactKey string, c entity.Contact) error
	List(ctx context.Context, userKey string) ([]entity.Contact, error)
}

var ErrEmptyKey = errors.New("contact needs a first or last name")

// ContactService adds and lists contacts under a user key (the user's email).
type ContactService struct {
	store Store
}

func NewContactService(s Store) *ContactService {
	return &ContactService{store: s}
}

// Add upserts c under its concatenated-name key and returns that key.
// A later contact with the same key replaces the earlier one.
func (s *ContactService) Add(ctx context.Context, userKey string, c entity.Contact) (string, error) {
	key := c.Key()
	if key == "" {
		return "", ErrEmptyKey
	}
	if err := s.store.Upsert(ctx, userKey, key, c); err != nil {
		return "", err
	}
	return key, nil
}

func (s *ContactService) List(ctx context.Context, userKey string) ([]entity.Contact, error) {
	return s.store.List(ctx, userKey)
}
