package models

import (
	"time"

	"courtreserve/internal/domain"
)

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Role         domain.Role `json:"role"`
	Banned       bool        `json:"banned"`
	BannedAt     *time.Time  `json:"bannedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (u User) Actor() domain.Actor {
	return domain.Actor{UserID: u.ID, Role: u.Role}
}
