package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
)

var _ ports.TokenIssuer = (*TokenIssuer)(nil)

// TokenTypeBearer — значение token_type в ответе логина.
const TokenTypeBearer = "bearer"

// Config — секрет и сроки жизни токенов.
type Config struct {
	SecretKey       string
	Algorithm       string // HS256 | HS384 | HS512
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// claims — полезная нагрузка токена.
type claims struct {
	Type           domain.TokenType `json:"type"`
	OrganizationID *int64           `json:"organization_id,omitempty"`
	Role           *string          `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer — bcrypt для паролей, симметрично подписанные JWT для токенов. Состояния нет.
type TokenIssuer struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	now        func() time.Time
}

// NewTokenIssuer — проверяет алгоритм и секрет, подставляет дефолты сроков (30 мин / 7 дней).
func NewTokenIssuer(cfg Config) (*TokenIssuer, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("security: secret key is required")
	}

	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	issuer := &TokenIssuer{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		cost:       cfg.BcryptCost,
		now:        time.Now,
	}
	if issuer.accessTTL <= 0 {
		issuer.accessTTL = 30 * time.Minute
	}
	if issuer.refreshTTL <= 0 {
		issuer.refreshTTL = 7 * 24 * time.Hour
	}
	if issuer.cost < bcrypt.MinCost || issuer.cost > bcrypt.MaxCost {
		issuer.cost = bcrypt.DefaultCost
	}
	return issuer, nil
}

// WithClock — подмена часов (для тестов).
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *t
	clone.now = now
	return &clone
}

func (t *TokenIssuer) HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), t.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (t *TokenIssuer) VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

func (t *TokenIssuer) CreateTokenPair(userID int64, organizationID *int64, role *string) (*domain.TokenPair, error) {
	now := t.now()

	access, err := t.sign(userID, domain.TokenAccess, now.Add(t.accessTTL), organizationID, role)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, domain.TokenRefresh, now.Add(t.refreshTTL), organizationID, role)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

// VerifyToken — подпись, срок и тип. Истёкший токен — ErrTokenExpired, чужой тип — ErrWrongTokenType,
// всё остальное — ErrInvalidToken.
func (t *TokenIssuer) VerifyToken(token string, expected domain.TokenType) (*domain.TokenPayload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", domain.ErrInvalidToken)
	}
	if c.Type != expected {
		return nil, fmt.Errorf("%w: got %q, want %q", domain.ErrWrongTokenType, c.Type, expected)
	}

	return &domain.TokenPayload{
		Subject:        c.Subject,
		ExpiresAt:      c.ExpiresAt.Time.UTC(),
		Type:           c.Type,
		OrganizationID: c.OrganizationID,
		Role:           c.Role,
	}, nil
}

func (t *TokenIssuer) sign(userID int64, typ domain.TokenType, exp time.Time, organizationID *int64, role *string) (string, error) {
	c := claims{
		Type:           typ,
		OrganizationID: organizationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(t.method, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func signingMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("security: unsupported algorithm %q", alg)
}
