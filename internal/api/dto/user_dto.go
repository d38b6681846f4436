package dto

import (
	"time"

	"github.com/civicchain/civic-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse wraps a user and issued token.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserResponse is the user snapshot returned by the API.
type UserResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Role              domain.UserRole `json:"role"`
	Reputation        int             `json:"reputation"`
	IssuesReported    int             `json:"issues_reported"`
	IssuesResolved    int             `json:"issues_resolved"`
	TotalUpvotes      int             `json:"total_upvotes"`
	VerificationsDone int             `json:"verifications_done"`
	Badges            []string        `json:"badges"`
	WalletRef         *string         `json:"wallet_ref"`
	CreatedAt         time.Time       `json:"created_at"`
}
