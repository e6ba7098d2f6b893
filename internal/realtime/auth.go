package realtime

import (
	pkgauth "github.com/goalmates-app/goalmates-backend/pkg/auth"
	"github.com/goalmates-app/goalmates-backend/pkg/config"
	"github.com/google/uuid"
)

type jwtVerifier struct {
	cfg config.JWTConfig
}

// NewJWTVerifier adapts the platform JWT parser to the gateway contract.
func NewJWTVerifier(cfg config.JWTConfig) TokenVerifier {
	return jwtVerifier{cfg: cfg}
}

func (v jwtVerifier) VerifyToken(token string) (uuid.UUID, error) {
	claims, err := pkgauth.ParseAccessToken(v.cfg, token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}
