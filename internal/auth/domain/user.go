package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string // stored lower-cased
	PasswordHash string // argon2 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
