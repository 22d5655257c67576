package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/invoicestack/internal/utils"
)

// MailCredential holds the OAuth token material for one user's mailbox. At most one per user.
type MailCredential struct {
	ID           string     `gorm:"column:id;type:varchar(50);primaryKey"`
	UserID       string     `gorm:"column:user_id;type:varchar(50);uniqueIndex;not null"`
	AccessToken  string     `gorm:"column:access_token;type:text;not null" json:"-"`
	RefreshToken string     `gorm:"column:refresh_token;type:text;not null" json:"-"`
	Expiry       time.Time  `gorm:"column:expiry;type:timestamp;not null"`
	MailAddress  string     `gorm:"column:mail_address;type:varchar(255)"`
	LastSyncAt   *time.Time `gorm:"column:last_sync_at;type:timestamp"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (MailCredential) TableName() string {
	return "mail_credentials"
}

func (c *MailCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("cred", 16)
	}
	c.CreatedAt = utils.Now()
	c.UpdatedAt = c.CreatedAt
	return nil
}

// IsExpired reports whether the access token can no longer be used at now.
func (c *MailCredential) IsExpired(now time.Time) bool {
	return !c.Expiry.After(now)
}
