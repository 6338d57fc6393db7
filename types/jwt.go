package types

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims. SessionVersion must match the user's
// current session_version for the token to be accepted.
type Claims struct {
	UserID         uint   `json:"user_id"`
	Role           string `json:"role"`
	SessionVersion int    `json:"sv"`
	jwt.RegisteredClaims
}
