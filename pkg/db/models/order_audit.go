package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// OrderStatusEvent is one append-only row of an order's status history.
type OrderStatusEvent struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	Seq         int                `gorm:"column:seq;not null"`
	FromStatus  *enums.OrderStatus `gorm:"column:from_status;type:order_status"`
	ToStatus    enums.OrderStatus  `gorm:"column:to_status;type:order_status;not null"`
	ActorUserID uuid.UUID          `gorm:"column:actor_user_id;type:uuid;not null"`
	ActorRole   enums.Role         `gorm:"column:actor_role;not null"`
	Notes       *string            `gorm:"column:notes"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (e *OrderStatusEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// OrderModification is one append-only row of order-level seller changes.
type OrderModification struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID                   `gorm:"column:order_id;type:uuid;not null"`
	Seq              int                         `gorm:"column:seq;not null"`
	ModificationType enums.OrderModificationType `gorm:"column:modification_type;not null"`
	Field            string                      `gorm:"column:field;not null"`
	OldValue         *string                     `gorm:"column:old_value"`
	NewValue         *string                     `gorm:"column:new_value"`
	Reason           *string                     `gorm:"column:reason"`
	Notes            *string                     `gorm:"column:notes"`
	ActorUserID      uuid.UUID                   `gorm:"column:actor_user_id;type:uuid;not null"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (m *OrderModification) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// OrderItemModification is one append-only row of line-level seller changes.
type OrderItemModification struct {
	ID               uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID      uuid.UUID                  `gorm:"column:order_item_id;type:uuid;not null"`
	OrderID          uuid.UUID                  `gorm:"column:order_id;type:uuid;not null"`
	Seq              int                        `gorm:"column:seq;not null"`
	ModificationType enums.ItemModificationType `gorm:"column:modification_type;not null"`
	OldValue         *string                    `gorm:"column:old_value"`
	NewValue         *string                    `gorm:"column:new_value"`
	Reason           *string                    `gorm:"column:reason"`
	ActorUserID      uuid.UUID                  `gorm:"column:actor_user_id;type:uuid;not null"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (m *OrderItemModification) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
