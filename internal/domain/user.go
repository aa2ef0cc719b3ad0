package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleSupport Role = "support"
)

type User struct {
	ID             UserID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name           string     `gorm:"type:text" db:"name" json:"name"`
	Email          string     `gorm:"type:citext;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Role           Role       `gorm:"type:varchar(20);not null;default:'student'" db:"role" json:"role"`
	HashedPassword *string    `gorm:"type:text" db:"hashed_password" json:"-"`
	AvatarID       *uuid.UUID `gorm:"type:uuid" db:"avatar_id" json:"avatar_id"`
	CreatedAt      time.Time  `gorm:"not null" db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" db:"updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
