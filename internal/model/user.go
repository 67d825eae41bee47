package model

import (
	"time"
)

// Role distinguishes the two sides of the marketplace.
type Role string

const (
	RoleStudent   Role = "student"
	RoleDeveloper Role = "developer"
)

// User is a marketplace account. Developer-specific fields are empty for
// students.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	HourlyFee string    `json:"hourly_fee,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest authenticates against the backend.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest registers a new account. Verification completes via OTP.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// VerifyRequest confirms the one-time passcode sent at signup.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AuthResponse is returned by login and verify; the token is a bearer JWT
// persisted to durable local storage.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateProfileRequest updates the signed-in user's profile.
type UpdateProfileRequest struct {
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	HourlyFee string   `json:"hourly_fee,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
}

// Subscription describes the user's plan; Pro subscribers get a percentage
// discount at checkout.
type Subscription struct {
	Plan            string     `json:"plan"`
	Active          bool       `json:"active"`
	DiscountPercent int        `json:"discount_percent,omitempty"`
	RenewsAt        *time.Time `json:"renews_at,omitempty"`
}

// IsPro reports whether the subscription grants Pro benefits.
func (s *Subscription) IsPro() bool {
	return s != nil && s.Active && s.Plan == "pro"
}

// ComplaintRequest files a complaint against an order or user.
type ComplaintRequest struct {
	OrderID string `json:"order_id,omitempty"`
	Against string `json:"against,omitempty"`
	Subject string `json:"subject"`
	Details string `json:"details"`
}

// RoomToken is a server-issued, short-lived credential for joining a video
// room. The gateway never holds long-lived video SDK secrets.
type RoomToken struct {
	RoomID    string    `json:"room_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CheckoutSession is returned by the backend when a paid flow begins; the
// browser performs a full-page redirect to URL.
type CheckoutSession struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	OrderID string `json:"order_id,omitempty"`
}

// CreateCheckoutSessionRequest asks the backend to open a payment session.
type CreateCheckoutSessionRequest struct {
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}
