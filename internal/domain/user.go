package domain

import "time"

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	AvatarKey    string     `json:"-" dynamodbav:"avatar_key"`
	AvatarURL    string     `json:"avatar_url,omitempty" dynamodbav:"-"`
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone"`
}

// Profile is the public slice of a user served to polling initiators and to
// the confirm screen. Never include credentials or contact details here.
type Profile struct {
	UserID    string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PublicProfile projects a user onto the fields safe to show a device that
// has not authenticated yet.
func (u *User) PublicProfile() *Profile {
	return &Profile{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
