package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AccountTypeMusician = "musician"
	AccountTypeVenue    = "venue"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"` // stored case-folded
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	GoogleID     *string   `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	Profile      *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Profile carries the public half of a user. AccountType decides the
// variant: Instruments is musician-only, VenueCapacity is venue-only;
// the service layer rejects writes that cross the variants.
type Profile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	StageName     string    `gorm:"size:100;index;not null" json:"stage_name"`
	AccountType   string    `gorm:"size:20;not null" json:"account_type"`
	Bio           *string   `gorm:"type:text" json:"bio,omitempty"`
	Genres        []string  `gorm:"serializer:json" json:"genres,omitempty"`
	Instruments   []string  `gorm:"serializer:json" json:"instruments,omitempty"`
	VenueCapacity *int      `json:"venue_capacity,omitempty"`
	ProfileImage  *string   `gorm:"type:text" json:"profile_image,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Profile) IsMusician() bool {
	return p.AccountType == AccountTypeMusician
}

func (p *Profile) IsVenue() bool {
	return p.AccountType == AccountTypeVenue
}
