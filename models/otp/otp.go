package otp

import (
	"time"
)

// Otp is a single-use numeric login code for an email address.
// Invariant: at most one live record per email; issuing a new code
// deletes all prior records for that address. A record is consumed
// (deleted) exactly once, on successful verification.
type Otp struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Code      string    `gorm:"type:varchar(6);not null" json:"code"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsExpired checks whether the code is past its validity window.
func (o *Otp) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}
