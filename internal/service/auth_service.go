package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parsemybill/internal/config"
	"parsemybill/internal/domain"
	"parsemybill/internal/port"
)

const verificationTokenExpiry = 24 * time.Hour

// Claims represents the JWT claims carried by ParseMyBill tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RegisterInput is the DTO for registration requests.
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// RefreshInput is the DTO for token refresh requests.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginInput is the DTO for login requests.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthService is the auth gate: it moves a caller between the anonymous and
// authenticated states and turns a bearer token into an explicit Session.
// Logout is client-side token discard; tokens are stateless.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input LoginInput) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*domain.Session, error)
}

type authService struct {
	userRepo port.UserRepository
	sender   port.EmailSender
	cfg      config.JWTConfig
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(userRepo port.UserRepository, sender port.EmailSender, cfg config.JWTConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		sender:   sender,
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: hashing password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Verification email is best-effort: registration succeeded, and the
	// token can be re-requested by logging in again.
	verifyToken, err := s.signToken(user, "verify", verificationTokenExpiry)
	if err != nil {
		log.Printf("auth.Register: signing verification token for %s: %v", user.ID, err)
		return user, nil
	}
	if err := s.sender.SendVerificationEmail(ctx, user.Email, user.FullName, verifyToken); err != nil {
		log.Printf("auth.Register: sending verification email to %s: %v", user.Email, err)
	}

	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.validateTokenString(token, "verify")
	if err != nil {
		return domain.ErrAuthentication
	}
	return s.userRepo.SetEmailVerified(ctx, claims.UserID)
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.generateTokenPair(user)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateTokenString(refreshToken, "refresh")
	if err != nil {
		return nil, domain.ErrAuthentication
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrAuthentication
	}

	return s.generateTokenPair(user)
}

// ValidateToken checks an access token and returns the session context for
// the request. This is the only place a Session is created.
func (s *authService) ValidateToken(tokenString string) (*domain.Session, error) {
	claims, err := s.validateTokenString(tokenString, "access")
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return &domain.Session{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *authService) generateTokenPair(user *domain.User) (*TokenPair, error) {
	accessToken, err := s.signToken(user, "access", s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refreshToken, err := s.signToken(user, "refresh", s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.cfg.AccessTokenExpiry),
	}, nil
}

func (s *authService) signToken(user *domain.User, audience string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		UserID: user.ID,
		Email:  user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *authService) validateTokenString(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, domain.ErrAuthentication
	}

	aud, _ := claims.GetAudience()
	for _, a := range aud {
		if a == audience {
			return claims, nil
		}
	}
	return nil, domain.ErrAuthentication
}
