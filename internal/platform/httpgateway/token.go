package httpgateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer is the iss claim of service tokens.
const TokenIssuer = "vocabd"

// tokenSource signs service tokens and reuses one until 80% of its lifetime
// has passed.
type tokenSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	token   string
	renewAt time.Time
}

func newTokenSource(secret, subject string, ttl time.Duration, now func() time.Time) *tokenSource {
	return &tokenSource{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     now,
	}
}

// Token returns a valid signed token.
func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.renewAt) {
		return s.token, nil
	}

	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token with HMAC-SHA256: %w", err)
	}

	s.token = signed
	s.renewAt = now.Add(s.ttl * 4 / 5)
	return signed, nil
}
