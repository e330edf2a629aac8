package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mvcampos/oticaflow-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    enums.StaffRole
	JTI     string
}

// AccessTokenClaims is the typed JWT the identity service issues to counter
// staff. Every token is scoped to exactly one store.
type AccessTokenClaims struct {
	UserID  uuid.UUID       `json:"user_id"`
	StoreID uuid.UUID       `json:"store_id"`
	Role    enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
