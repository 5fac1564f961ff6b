package auth

import (
	"context"
	"time"
)

// Clinician roles mirror the account types the receiving application knows.
const (
	RoleDoctor = "DOCTOR"
	RoleAdmin  = "ADMIN"
)

// User is a clinician account on the receiving device.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Role         string    `json:"role" bson:"role"`
	PasswordHash string    `json:"passwordHash" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// UserStore is the slice of the local store the auth service needs.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]User, error)
	SaveUsers(ctx context.Context, users []User) error
}
