package models

import "time"

// RefreshToken is one login session. Only the SHA-256 of the token is stored.
// TenantID is the user's tenant when the session was issued; a session does
// not survive the user moving to another tenant.
type RefreshToken struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	TenantID          *uint      `gorm:"index" json:"tenant_id,omitempty"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt         *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	ReplacedByTokenID *uint      `gorm:"index" json:"replaced_by_token_id,omitempty"`
	CreatedByIP       string     `gorm:"size:64" json:"created_by_ip,omitempty"`
	UserAgent         string     `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// Active reports whether the session can still be refreshed at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// IssuedFor reports whether the session was issued for user's current tenant.
func (t *RefreshToken) IssuedFor(user *User) bool {
	if t.TenantID == nil || user.TenantID == nil {
		return t.TenantID == nil && user.TenantID == nil
	}
	return *t.TenantID == *user.TenantID
}
