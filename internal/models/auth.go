package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest creates a provider account keyed by a hashed wallet address.
type RegisterRequest struct {
	WalletAddress string `json:"wallet_address_hashed" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	BusinessName  string `json:"business_name"`
	Website       string `json:"website"`
	ContactPerson string `json:"contact_person"`
	Address       string `json:"address"`
	Country       string `json:"country"`
}

// LoginRequest holds credentials for authenticating a provider.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and provider info.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	Provider     ProviderInfo `json:"provider"`
	IssuedAt     time.Time    `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ProviderInfo describes the authenticated provider in responses.
type ProviderInfo struct {
	ID            int64  `json:"id"`
	WalletAddress string `json:"wallet_address_hashed"`
	Email         string `json:"email"`
	BusinessName  string `json:"business_name"`
}

// JWTClaims represents the JWT payload for access tokens. The resolved
// provider id is the acting identity trusted by the core.
type JWTClaims struct {
	ProviderID    int64  `json:"provider_id"`
	WalletAddress string `json:"wallet_address_hashed"`
	Email         string `json:"email"`
	jwt.RegisteredClaims
}
