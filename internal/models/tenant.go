package models

import "time"

// Tenant is an organization using the portal. Timezone is an IANA zone name
// and drives every report week period of the tenant.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Timezone  string    `gorm:"size:64;not null" json:"timezone"`
	Country   string    `gorm:"size:8;default:US" json:"country"` // holiday calendar, NONE = weekdays only
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }
