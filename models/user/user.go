package user

import (
	"time"

	"pickabook/constants"
)

// User is an account created on first successful OTP login. Accounts are
// never deleted in-system; mutation is limited to admin credit updates
// and the per-generation credit decrement.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid     string `gorm:"type:varchar(255);not null;unique" json:"uuid"`
	Username string `gorm:"type:varchar(255);not null" json:"username"`
	Email    string `gorm:"type:varchar(255);not null;unique" json:"email"`
	UserType int    `gorm:"type:int;not null;default:1" json:"user_type"`
	Credits  int    `gorm:"type:int;not null;default:0" json:"credits"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Public is the client-facing projection of a user. It carries no
// internal fields and nothing usable to forge a session.
type Public struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	UserType  int        `json:"userType"`
	Credits   int        `json:"credits"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Public builds the projection returned on login and /auth/me.
func (u *User) Public() Public {
	return Public{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		UserType: u.UserType,
		Credits:  u.Credits,
	}
}

// PublicWithCreatedAt is the admin-list variant that includes the
// creation timestamp.
func (u *User) PublicWithCreatedAt() Public {
	p := u.Public()
	createdAt := u.CreatedAt
	p.CreatedAt = &createdAt
	return p
}

// IsAdmin reports whether the user may call administrator-only routes.
func (u *User) IsAdmin() bool {
	return u.UserType == constants.UserTypeAdmin
}
