package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Notification stores an in-app message for a user, or for the customer
// behind a phone number when the account has no user id yet.
type Notification struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID        uuid.UUID              `gorm:"type:uuid;not null"`
	UserID         *uuid.UUID             `gorm:"type:uuid"`
	RecipientPhone *string                `gorm:"type:text"`
	ShopID         *uuid.UUID             `gorm:"type:uuid"`
	Type           enums.NotificationType `gorm:"type:notification_type;not null"`
	Title          string                 `gorm:"type:text;not null"`
	Message        string                 `gorm:"type:text;not null"`
	Link           *string                `gorm:"type:text"`
	ReadAt         *time.Time             `gorm:"type:timestamptz"`
	CreatedAt      time.Time              `gorm:"type:timestamptz;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
