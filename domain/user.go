package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. The password hash never leaves the
// repository layer; this struct is what services and handlers see.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`
}

// Ref converts a full user into the reference embedded in confirmed records.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}
