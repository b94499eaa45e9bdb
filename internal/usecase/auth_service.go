package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/internal/ports"
	"github.com/Gunvolt24/orderdesk/pkg/metrics"
	"github.com/Gunvolt24/orderdesk/pkg/validate"
)

var _ ports.AuthService = (*AuthService)(nil)

const (
	// dummyPassword — пароль для хеша, с которым сверяемся при неизвестном email.
	dummyPassword = "orderdesk-dummy-password"
	// fallbackDummyHash — готовый bcrypt-хеш (cost 10) на случай, если HashPassword вернул ошибку.
	fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// AuthService — регистрация, логин и проверка access-токена.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenIssuer
	validator ports.CredentialsValidator
	log       ports.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService — DI-конструктор.
func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenIssuer,
	validator ports.CredentialsValidator,
	log ports.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		validator: validator,
		log:       log,
	}
}

// normalizeEmail — email сравнивается без учёта регистра и пробелов по краям.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register — создаёт учётную запись. Занятый email — ErrEmailTaken
// (в том числе при гонке двух регистраций, когда хранилище вернуло ErrDuplicateKey).
func (s *AuthService) Register(ctx context.Context, email, password string) (uc *domain.UserContext, err error) {
	defer func() { countAuth("register", err) }()

	email = normalizeEmail(email)
	if err = s.validator.Validate(ctx, email, password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Errorf(ctx, "users.FindByEmail failed err=%v", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.tokens.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: email, PasswordHash: hash}
	if err = s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrEmailTaken
		}
		s.log.Errorf(ctx, "users.Insert failed err=%v", err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.log.Infof(ctx, "user registered id=%d", user.ID)
	return &domain.UserContext{ID: user.ID, Email: user.Email}, nil
}

// Login — проверяет пароль и выдаёт пару токенов.
// Неизвестный email и неверный пароль неразличимы: оба дают ErrInvalidCredentials,
// и в обоих случаях выполняется сверка bcrypt.
func (s *AuthService) Login(ctx context.Context, email, password string) (pair *domain.TokenPair, err error) {
	defer func() { countAuth("login", err) }()

	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.log.Errorf(ctx, "users.FindByEmail failed err=%v", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil {
		_ = s.tokens.VerifyPassword(password, s.dummyDigest())
		return nil, domain.ErrInvalidCredentials
	}
	if !s.tokens.VerifyPassword(password, user.PasswordHash) {
		s.log.Warnf(ctx, "login failed: wrong password user_id=%d", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	pair, err = s.tokens.CreateTokenPair(user.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create token pair: %w", err)
	}

	s.log.Infof(ctx, "user logged in id=%d", user.ID)
	return pair, nil
}

// Authenticate — пользователь по access-токену. Любая проблема — ErrUnauthorized
// (причина обёрнута для логов, наружу не отдаётся).
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (uc *domain.UserContext, err error) {
	defer func() { countAuth("authenticate", err) }()

	payload, err := s.tokens.VerifyToken(accessToken, domain.TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(payload.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", domain.ErrUnauthorized, payload.Subject)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Errorf(ctx, "users.FindByID failed id=%d err=%v", userID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, userID)
	}

	return &domain.UserContext{ID: user.ID, Email: user.Email}, nil
}

// dummyDigest — хеш-заглушка, считается один раз; при ошибке HashPassword — fallbackDummyHash.
func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := s.tokens.HashPassword(dummyPassword)
		if err != nil || hash == "" {
			s.dummyHash = fallbackDummyHash
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func countAuth(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		result = "rejected"
	case errors.Is(err, domain.ErrEmailTaken):
		result = "conflict"
	case errors.Is(err, validate.ErrInvalidCredentials):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.AuthAttempts.WithLabelValues(op, result).Inc()
}
