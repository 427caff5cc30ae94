package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID       uint   `gorm:"primaryKey"`
	Email    string `gorm:"uniqueIndex"`
	Password string

	// Points is the derived balance: always equal to the sum of this user's
	// point transactions. Updated in the same DB transaction as every
	// transaction insert so the two never diverge.
	Points int `gorm:"not null;default:0"`

	// ContinuousCount is the attendance streak counter, maintained by the
	// points engine when the daily attendance bonus is granted.
	ContinuousCount int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
