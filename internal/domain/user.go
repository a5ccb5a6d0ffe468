package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBanned   Status = "banned"
)

// User is the persistent account record. Email and phone are stored in
// normalized form; at least one of them is set.
type User struct {
	ID           uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        *string                     `json:"email,omitempty" gorm:"uniqueIndex;size:150"`
	Phone        *string                     `json:"phone,omitempty" gorm:"uniqueIndex;size:20"`
	PasswordHash string                      `json:"-" gorm:"not null"`
	FirstName    string                      `json:"firstName,omitempty" gorm:"size:80"`
	LastName     string                      `json:"lastName,omitempty" gorm:"size:80"`
	Name         string                      `json:"name" gorm:"size:160;not null"`
	Birthday     *time.Time                  `json:"birthday,omitempty" gorm:"type:date"`
	Gender       Gender                      `json:"gender" gorm:"size:10;default:unknown"`
	Avatar       string                      `json:"avatar,omitempty" gorm:"type:text"`
	Role         Role                        `json:"role" gorm:"size:20;default:user"`
	Status       Status                      `json:"status" gorm:"size:20;default:active;index"`
	Friends      datatypes.JSONSlice[string] `json:"friends" gorm:"type:jsonb"`
	Requests     datatypes.JSONSlice[string] `json:"requests" gorm:"type:jsonb"`
	LikeCount    int                         `json:"likeCount" gorm:"default:0"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt              `json:"-" gorm:"index"`
}

// Summary is the projection stored in the session cache and returned by the
// search endpoints.
type Summary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:     u.ID.String(),
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

// DeriveName builds the display name from first/last name, falling back to
// email and then phone so it is never empty for a valid user.
func DeriveName(firstName, lastName string, email, phone *string) string {
	if name := strings.TrimSpace(firstName + " " + lastName); name != "" {
		return name
	}
	if email != nil && *email != "" {
		return *email
	}
	if phone != nil && *phone != "" {
		return *phone
	}
	return ""
}
