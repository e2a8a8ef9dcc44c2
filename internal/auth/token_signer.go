package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type serviceTokenClaims struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenSigner mints and checks HS256 service tokens scoped to one guild.
type TokenSigner struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewTokenSigner(secretKey []byte) *TokenSigner {
	return &TokenSigner{secretKey: secretKey, issuer: "roster", now: time.Now}
}

// Issue signs a token for subject acting in guildID. userID may be empty
// when the caller will pass X-Discord-Id per request.
func (s *TokenSigner) Issue(subject, guildID, userID string, ttl time.Duration) (string, error) {
	if len(s.secretKey) == 0 {
		return "", errors.New("token signing secret is not configured")
	}
	now := s.now()
	claims := serviceTokenClaims{
		GuildID: guildID,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its claims.
func (s *TokenSigner) Parse(tokenString string) (*ServiceClaims, error) {
	if len(s.secretKey) == 0 {
		return nil, ErrInvalidToken
	}
	var claims serviceTokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.GuildID == "" {
		return nil, ErrInvalidToken
	}
	return &ServiceClaims{
		TokenID: claims.ID,
		GuildID: claims.GuildID,
		UserID:  claims.UserID,
		Subject: claims.Subject,
	}, nil
}
