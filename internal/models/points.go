package models

import (
	"time"
)

// PointTransaction is one immutable ledger entry. The (UserID, Reason) pair
// is unique: a reason string is never re-awarded to the same user, which is
// the idempotency mechanism for every reward type. The composite unique
// index is the final arbiter under concurrent finalize retries.
type PointTransaction struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_points_user_reason"`
	User   User   `gorm:"foreignKey:UserID"`
	Amount int    `gorm:"not null"`
	Reason string `gorm:"not null;size:100;uniqueIndex:idx_points_user_reason"`

	CreatedAt time.Time
}
