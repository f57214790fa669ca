package models

import "github.com/golang-jwt/jwt/v5"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Claims carried by both verification and access tokens. Verification
// tokens carry only Email; access tokens also carry the session id of
// the login that issued them.
type Claims struct {
	Email     string `json:"email"`
	SessionID string `json:"sessionId,omitempty"`
	jwt.RegisteredClaims
}
