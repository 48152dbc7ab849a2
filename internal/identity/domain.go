package identity

import "time"

// StatusActive is the stored status of a user allowed to log in.
const StatusActive = "activo"

// Register result messages.
const (
	MsgRegistered  = "registration successful"
	MsgEmailTaken  = "email already registered"
	MsgSystemError = "system error"
)

// User is a storefront customer. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the registration payload.
type Profile struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,maxbytes=72"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=120"`
}

// ProfileUpdate replaces the editable profile fields.
type ProfileUpdate struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=120"`
}

// RegisterResult reports a registration attempt.
type RegisterResult struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"user_id,omitempty"`
	Message string `json:"message"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
