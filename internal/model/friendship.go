package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FriendshipPending = "pending"
	FriendshipFriends = "friends"
)

// Friendship is the normalized relationship record. At most one row may
// exist per unordered {sender, receiver} pair; both columns are indexed
// because either side of the pair may have been the sender.
type Friendship struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Status     string    `gorm:"size:20;not null" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// Involves reports whether the given user is either side of the record.
func (f *Friendship) Involves(userID uuid.UUID) bool {
	return f.SenderID == userID || f.ReceiverID == userID
}

// Other returns the opposite party of the record relative to userID.
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}
