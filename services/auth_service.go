package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"service-booking-server/models"
	"service-booking-server/types"
	"service-booking-server/utils"
)

const tokenIssuer = "service-booking-server"

// AuthService issues and validates access tokens. A token is bound to the
// user's session version; bumping the version revokes every token issued
// before it.
type AuthService struct {
	db     *gorm.DB
	log    *zap.Logger
	secret []byte
	expiry time.Duration
}

func NewAuthService(db *gorm.DB, log *zap.Logger, secret string, expiry time.Duration) *AuthService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &AuthService{db: db, log: log, secret: []byte(secret), expiry: expiry}
}

type RegisterInput struct {
	FullName    string
	PhoneNumber string
	Password    string
	Role        models.UserRole
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// Register creates a customer or provider account. Providers start
// pending and cannot act until an admin approves them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResponse, error) {
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if in.Role != models.RoleCustomer && in.Role != models.RoleProvider {
		return nil, ErrInvalidRole
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		FullName:       strings.TrimSpace(in.FullName),
		PhoneNumber:    utils.NormalizePhoneNumber(in.PhoneNumber),
		PasswordHash:   hash,
		Role:           in.Role,
		IsActive:       true,
		ProviderStatus: models.ProviderStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login checks the password and issues a token. Inactive accounts cannot
// log in.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*TokenResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("phone_number = ?", utils.NormalizePhoneNumber(phone)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return s.issue(&user)
}

func (s *AuthService) issue(user *models.User) (*TokenResponse, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.expiry / time.Second),
		User:        user,
	}, nil
}

// IssueToken signs an HS256 access token for user at its current session
// version.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		UserID:         user.ID,
		Role:           string(user.Role),
		SessionVersion: user.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates signature and expiry and returns the claims.
func (s *AuthService) ParseToken(tokenString string) (*types.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*types.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its user. Tokens of inactive
// users or from a terminated session are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive || user.SessionVersion != claims.SessionVersion {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// TerminateSessions revokes every token issued to the user so far.
func (s *AuthService) TerminateSessions(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("session_version", gorm.Expr("session_version + 1")).Error
	if err != nil {
		return err
	}
	s.log.Info("sessions terminated", zap.Uint("user_id", userID))
	return nil
}
