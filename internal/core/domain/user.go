package domain

import (
	"time"
)

type User struct {
	ID                int64
	Username          string `validate:"required,max=150"`
	Email             string `validate:"omitempty,email,max=254"`
	FirstName         string `validate:"max=150"`
	LastName          string `validate:"max=150"`
	EncryptedPassword string
	CreatedAt         time.Time
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username}
}
