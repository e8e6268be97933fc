package service

import (
	"errors"
	"time"

	"tapearn/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	playerAudience = "player"
	adminAudience  = "admin"

	PlayerTokenTTL = 24 * time.Hour
	AdminTokenTTL  = 2 * time.Hour
)

var jwtSecret []byte

var errInvalidToken = errors.New("invalid token")

func InitJWT(secret string) {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecret = []byte(secret)
}

type playerClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// AdminClaims is what an admin token proves.
type AdminClaims struct {
	AdminID int64            `json:"admin_id"`
	Role    domain.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

func registered(audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func GenerateJWT(userID int64) (string, error) {
	claims := playerClaims{UserID: userID, RegisteredClaims: registered(playerAudience, PlayerTokenTTL)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseJWT validates a player token and returns its user id.
func ParseJWT(tokenString string) (int64, error) {
	var claims playerClaims
	if err := parse(tokenString, &claims, playerAudience); err != nil {
		return 0, err
	}
	if claims.UserID <= 0 {
		return 0, errors.New("user_id not found")
	}
	return claims.UserID, nil
}

func GenerateAdminJWT(adminID int64, role domain.AdminRole) (string, error) {
	claims := AdminClaims{AdminID: adminID, Role: role, RegisteredClaims: registered(adminAudience, AdminTokenTTL)}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseAdminJWT validates an admin token. Player tokens are rejected by audience.
func ParseAdminJWT(tokenString string) (*AdminClaims, error) {
	var claims AdminClaims
	if err := parse(tokenString, &claims, adminAudience); err != nil {
		return nil, err
	}
	if claims.AdminID <= 0 || claims.Role == "" {
		return nil, errors.New("admin claims missing")
	}
	return &claims, nil
}

func parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return errInvalidToken
	}
	return nil
}
