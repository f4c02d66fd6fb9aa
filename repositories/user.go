//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"courier/domain"
	courerrors "courier/errors"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (domain.User, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(id uuid.UUID) (domain.User, error)
	ListUsers(excluding uuid.UUID) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation; the password hash never
// crosses into the domain type.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"` // unix seconds
}

// CreateUser persists the user under "user:id:{uuid}" plus an email index
// "user:email:{email}" used by login. Both keys are written in one
// transaction so a partial user can never be observed.
func (u UserRepository) CreateUser(username, email, hashedPassword string) (domain.User, error) {
	newID := uuid.New()
	now := time.Now().UTC()

	stored := User{
		ID:           newID.String(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now.Unix(),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("user:email:" + email)
		if _, err := txn.Get(emailKey); err == nil {
			return courerrors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(newID.String())); err != nil {
			return err
		}
		return txn.Set([]byte("user:id:"+newID.String()), data)
	})
	if err != nil {
		return domain.User{}, err
	}

	return domain.User{ID: newID, Username: username, Email: email, CreatedAt: now}, nil
}

// GetUserByEmail resolves the email index and loads the full record,
// password hash included. Used by login only.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var stored User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:email:" + email))
		if err != nil {
			return err
		}
		var id []byte
		if err := item.Value(func(val []byte) error {
			id = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get([]byte("user:id:" + string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return User{}, err
	}
	return stored, nil
}

func (u UserRepository) GetUserByID(id uuid.UUID) (domain.User, error) {
	var stored User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:id:" + id.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("%w: %s", courerrors.ErrInvalidUserID, id)
	}
	if err != nil {
		return domain.User{}, err
	}
	return toDomainUser(stored)
}

// ListUsers returns every user except the given one, for the directory
// endpoint.
func (u UserRepository) ListUsers(excluding uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:id:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var stored User
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			})
			if err != nil {
				return err
			}
			user, err := toDomainUser(stored)
			if err != nil {
				return err
			}
			if user.ID == excluding {
				continue
			}
			users = append(users, user)
		}
		return nil
	})
	return users, err
}

func toDomainUser(stored User) (domain.User, error) {
	id, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        id,
		Username:  stored.Username,
		Email:     stored.Email,
		CreatedAt: time.Unix(stored.CreatedAt, 0).UTC(),
	}, nil
}
