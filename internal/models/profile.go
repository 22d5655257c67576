package models

import "time"

// Profile carries the per-user document quota. Plan resets happen outside this service.
type Profile struct {
	UserID        string    `gorm:"column:user_id;type:varchar(50);primaryKey"`
	DocumentCount int       `gorm:"column:document_count;not null;default:0"`
	DocumentLimit int       `gorm:"column:document_limit;not null;default:50"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) HasCapacity() bool {
	return p.DocumentCount < p.DocumentLimit
}
