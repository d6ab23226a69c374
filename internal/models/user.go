package models

import (
	"time"
)

// User is an account owner. The code fields are never serialized.
type User struct {
	BaseModel
	Name             string     `gorm:"type:varchar(191);not null" json:"name"`
	Email            string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"not null" json:"-"`
	IsVerified       bool       `gorm:"default:false" json:"is_verified"`
	VerificationCode *string    `gorm:"type:varchar(6)" json:"-"`
	LoginCode        *string    `gorm:"type:varchar(6)" json:"-"`
	CodeExpires      *time.Time `json:"-"`
}

// TableName keeps the historical table name.
func (User) TableName() string { return "users" }
