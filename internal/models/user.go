package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an approver account for the web UI.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	RoleApprover = "approver"
	RoleAdmin    = "admin"
)
