package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomID derives the deterministic per-pair room identifier: both
// participants compute the same id without a lookup.
func RoomID(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// Message is immutable once created; room history is ordered by
// created_at ascending.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID     string    `gorm:"size:80;index;not null" json:"room_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

// Chat is the per-room thread metadata record (one per room): kept
// separate from the message rows so the conversation list can render
// without scanning history.
type Chat struct {
	RoomID        string     `gorm:"size:80;primaryKey" json:"room_id"`
	ParticipantA  uuid.UUID  `gorm:"type:uuid;index;not null" json:"participant_a"`
	ParticipantB  uuid.UUID  `gorm:"type:uuid;index;not null" json:"participant_b"`
	LastMessage   *string    `gorm:"type:text" json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
