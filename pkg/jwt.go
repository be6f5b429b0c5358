package utils

import (
	"swap-market/internal/config"
	entity "swap-market/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim the identity service stamps on tokens for this API.
const Issuer = "swap-market-api"

// ValidateToken parses an HS256 token issued for this service and returns its claims.
func ValidateToken(jwtCfg config.JWTConfig, tokenString string) (*entity.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &entity.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		return jwtCfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*entity.JWTClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
