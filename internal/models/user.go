package models

// User is stored as a whole record under the users partition; every
// mutation overwrites the full item.
type User struct {
	Email      string `json:"email" dynamodbav:"email"`
	Name       string `json:"name" dynamodbav:"name"`
	Password   string `json:"-" dynamodbav:"password"`
	IsVerified bool   `json:"isVerified" dynamodbav:"isVerified"`
	// SessionID identifies the single active session. A new login
	// overwrites it, which invalidates every previously issued token.
	SessionID string `json:"-" dynamodbav:"sessionId,omitempty"`
}
