package factory

import (
	"fmt"
	"strings"
	"sync/atomic"

	fab "github.com/Goldziher/fabricator"
	"golang.org/x/crypto/bcrypt"

	"taskapp/internal/core/domain"
)

var sequence atomic.Int64

func next() int64 {
	return sequence.Add(1)
}

// Build fills a T with fake data. Overrides are merged left to right and
// applied by field name.
func Build[T any](customData ...map[string]any) T {
	merged := map[string]any{}

	for _, data := range customData {
		for key, value := range data {
			merged[key] = value
		}
	}

	instance := fab.New(*new(T))
	return instance.Build(merged)
}

type UserFixture struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// NewUser returns an unsaved user whose password is "12345678" unless overridden.
func NewUser(customData ...map[string]any) domain.User {
	n := next()

	defaults := map[string]any{
		"Username": fmt.Sprintf("user-%d", n),
		"Email":    fmt.Sprintf("user%d@example.com", n),
		"Password": "12345678",
	}

	fixture := Build[UserFixture](append([]map[string]any{defaults}, customData...)...)

	encrypted, _ := bcrypt.GenerateFromPassword([]byte(fixture.Password), bcrypt.MinCost)

	return domain.User{
		Username:          strings.TrimSpace(fixture.Username),
		Email:             fixture.Email,
		FirstName:         fixture.FirstName,
		LastName:          fixture.LastName,
		EncryptedPassword: string(encrypted),
	}
}
