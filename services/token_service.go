package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// IssuedToken is a signed access token and its expiry
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenService signs HS256 access tokens for authenticated users
type TokenService struct {
	signer   jose.Signer
	issuer   string
	audience string
	ttl      time.Duration
	clock    clock.Clock
}

type roleClaims struct {
	Role string `json:"role"`
}

// NewTokenService creates a token signer from the JWT settings in cfg
func NewTokenService(cfg *config.Config, clk clock.Clock) (*TokenService, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required to issue tokens")
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(cfg.JWTSecret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TokenService{
		signer:   signer,
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.TokenTTL,
		clock:    clk,
	}, nil
}

// Issue signs a token whose subject is the user id
func (s *TokenService) Issue(user *models.User) (*IssuedToken, error) {
	now := s.clock.Now()
	expires := now.Add(s.ttl)

	claims := jwt.Claims{
		Issuer:    s.issuer,
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		Audience:  jwt.Audience{s.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(expires),
	}

	raw, err := jwt.Signed(s.signer).Claims(claims).Claims(roleClaims{Role: string(user.Role)}).CompactSerialize()
	if err != nil {
		return nil, &Error{Kind: ErrUnavailable, Code: "TOKEN_ERROR", Message: "failed to sign token", Err: err}
	}
	return &IssuedToken{AccessToken: raw, TokenType: "Bearer", ExpiresAt: expires}, nil
}
