package service

import (
	"context"

	"taskhive/internal/auth"
	apperrors "taskhive/internal/errors"
	"taskhive/internal/model"
)

// ErrInvalidCredentials is returned for both unknown email and wrong
// password, so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = apperrors.Unauthorized("Invalid email or password")

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = apperrors.Unauthorized("Invalid or expired token")

// LoginResult carries the issued token together with the authenticated user.
type LoginResult struct {
	AccessToken string            `json:"access_token"`
	User        *model.PublicUser `json:"user"`
}

// AuthService composes the user directory with the token issuer.
type AuthService interface {
	Register(ctx context.Context, email, password string, name *string) (*model.PublicUser, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// ValidateToken resolves verified claims to a live user. A missing user or
	// lookup failure yields (nil, nil); callers treat nil as an auth failure.
	ValidateToken(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error)
	VerifyToken(token string) (*auth.Claims, error)
}

type authService struct {
	users UserService
	jwt   *auth.JWTService
}

// NewAuthService creates an authentication service.
func NewAuthService(users UserService, jwt *auth.JWTService) AuthService {
	return &authService{users: users, jwt: jwt}
}

// Register creates a new account. Conflict passes through unchanged; any
// other failure is re-signaled without internal detail.
func (s *authService) Register(ctx context.Context, email, password string, name *string) (*model.PublicUser, error) {
	user, err := s.users.Create(ctx, email, password, name)
	if err != nil {
		if apperrors.IsDomain(err) {
			return nil, err
		}
		return nil, apperrors.BadRequest("Registration failed")
	}
	return user, nil
}

// Login authenticates by email and password and issues an access token.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.users.ValidatePassword(password, user.Password)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("Login failed")
	}

	return &LoginResult{
		AccessToken: token,
		User:        user.Public(),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error) {
	id, err := claims.SubjectID()
	if err != nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil
	}
	return user, nil
}

func (s *authService) VerifyToken(token string) (*auth.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
