package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationFriendRequest         = "friendRequest"
	NotificationFriendRequestAccepted = "friendRequestAccepted"
	NotificationUnfriended            = "unfriended"
	NotificationOther                 = "other"
)

// Notification is one row of the append-only per-recipient feed.
// Rows are immutable once created except for the Read flag.
type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"` // recipient
	FromUserID uuid.UUID `gorm:"type:uuid;not null" json:"from_user_id"`  // who triggered it
	Type       string    `gorm:"size:50;not null" json:"type"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Pointer to avoid recursion if User ever embeds Notifications
	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
