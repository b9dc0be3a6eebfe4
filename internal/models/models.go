package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Recruiter bool               `bson:"recruiter" json:"recruiter"`
	OTP       *OTP               `bson:"otp,omitempty" json:"-"`
	Tokens    []SessionToken     `bson:"tokens,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// OTP is the embedded one-time code attached to a user.
// A user holds at most one OTP; writing a new one replaces the old.
type OTP struct {
	Code      string    `bson:"code" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	Used      bool      `bson:"used" json:"used"`
}

// * IsExpired проверяет, истек ли срок действия кода
func (o *OTP) IsExpired() bool {
	return o.ExpiresAt.Before(time.Now())
}

// * IsActive проверяет, активен ли код (не использован и не истек)
func (o *OTP) IsActive() bool {
	return !o.Used && !o.IsExpired()
}

// SessionToken is an opaque bearer credential stored on the user document.
type SessionToken struct {
	Value     string    `bson:"value" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (t *SessionToken) IsExpired() bool {
	return t.ExpiresAt.Before(time.Now())
}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// EventPatch carries a partial update; nil fields are left untouched.
type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
}

// Message is an email job published to the queue for the mail_sender worker.
type Message struct {
	Email   string `json:"to"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}
