package domain

import "time"

type TokenType string

const (
	TokenTypeRefresh       TokenType = "REFRESH_TOKEN"
	TokenTypePasswordReset TokenType = "PASSWORD_RESET"
)

// Token is a single-use store-backed credential. The id itself is the bearer
// secret: whoever presents it may redeem it, so redemption deletes the row.
type Token struct {
	ID        string    `gorm:"primaryKey;size:36" json:"-"`
	Type      TokenType `gorm:"size:32;not null" json:"type"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
