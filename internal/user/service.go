package user

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user/entity"
)

// Store is the credential store the service runs against.
type Store interface {
	Insert(ctx context.Context, email, password, algo string) (string, error)
	FindByEmail(ctx context.Context, email string) ([]entity.User, error)
	FindByEmailAndPassword(ctx context.Context, email, password string) ([]entity.User, error)
}

// ValidationError is a registration rule violation. Message is shown to the user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Registration rules, checked in this order.
var (
	ErrEmailTaken       = &ValidationError{Message: "Email already signed up."}
	ErrEmailLength      = &ValidationError{Message: "Email must be between 6 and 255 characters (inclusive.)"}
	ErrPasswordLength   = &ValidationError{Message: "Password must be between 8 and 255 characters (inclusive.)"}
	ErrPasswordMismatch = &ValidationError{Message: "Passwords do not match."}
)

var (
	ErrInvalidCombination = errors.New("invalid email and password combination")
	// ErrStaleSession means the token's credentials no longer match a stored row.
	ErrStaleSession = errors.New("session credentials no longer valid")
)

const (
	minEmailLen    = 6
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 255
)

// UserService orchestrates registration, login and session re-validation.
type UserService struct {
	repo   Store
	hasher PasswordHasher
}

func NewUserService(r Store, hasher PasswordHasher) *UserService {
	if hasher == nil {
		hasher = DefaultArgon2idHasher()
	}
	return &UserService{repo: r, hasher: hasher}
}

// Register validates the form and inserts a credential row.
// The returned user carries the stored (hashed) password.
//
// Two concurrent registrations for one email can both pass the existence
// check; the unique index on users.email makes the loser fail with a storage error.
func (s *UserService) Register(ctx context.Context, email, password, confirm string) (*entity.User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrEmailTaken
	}
	if n := utf8.RuneCountInString(email); n < minEmailLen || n > maxEmailLen {
		return nil, ErrEmailLength
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return nil, ErrPasswordLength
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Insert(ctx, email, hash, algo)
	if err != nil {
		return nil, err
	}
	return &entity.User{ID: id, Email: email, Password: hash, PasswordAlgo: algo}, nil
}

// Authenticate returns the row matching email and password, or ErrInvalidCombination.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	rows, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if s.verify(&rows[i], password) {
			return &rows[i], nil
		}
	}
	return nil, ErrInvalidCombination
}

// Revalidate re-checks a session's decoded email and stored-password claim
// against the credential store. It runs on every protected request so that a
// changed or removed credential invalidates outstanding tokens.
func (s *UserService) Revalidate(ctx context.Context, email, storedPassword string) (*entity.User, error) {
	rows, err := s.repo.FindByEmailAndPassword(ctx, email, storedPassword)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrStaleSession
	}
	return &rows[0], nil
}

// verify picks the hasher matching the row's algorithm so rows written under
// an older PASSWORD_SCHEME keep working.
func (s *UserService) verify(u *entity.User, password string) bool {
	switch {
	case u.PasswordAlgo == "plain":
		return PlainHasher{}.Verify(u.Password, password)
	case strings.HasPrefix(u.PasswordAlgo, "bcrypt"):
		return BcryptHasher{}.Verify(u.Password, password)
	case u.PasswordAlgo == "argon2id":
		return DefaultArgon2idHasher().Verify(u.Password, password)
	default:
		return s.hasher.Verify(u.Password, password)
	}
}
