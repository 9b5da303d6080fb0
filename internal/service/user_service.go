package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "taskhive/internal/errors"
	"taskhive/internal/model"
	"taskhive/internal/repository"
)

const bcryptCost = 12

// UpdateUserInput is a partial profile update. Nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string
	Name     *string
	Password *string
}

// UserService is the user directory: account lifecycle and credential checks.
type UserService interface {
	Create(ctx context.Context, email, password string, name *string) (*model.PublicUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PublicUser, error)
	// FindByEmail returns the full record including the password hash. It is
	// for credential validation only and must not cross the auth boundary.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.PublicUser, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ValidatePassword(plain, hash string) (bool, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService over the given repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Create registers a user with a hashed password. The email uniqueness check
// is read-then-write; the storage unique index is the final authority and a
// racing duplicate still surfaces as Conflict.
func (s *userService) Create(ctx context.Context, email, password string, name *string) (*model.PublicUser, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict("Email already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.BadRequest("Registration failed")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperrors.BadRequest("Registration failed")
	}

	user := &model.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.FromStorage(err, "Registration failed")
	}

	return user.Public(), nil
}

func (s *userService) FindByID(ctx context.Context, id uuid.UUID) (*model.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.BadRequest("Failed to retrieve user")
	}
	return user.Public(), nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// Update applies a partial profile update. An email change re-checks
// uniqueness and a password change is re-hashed before persisting.
func (s *userService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.BadRequest("Failed to update user")
	}

	if input.Email != nil && *input.Email != user.Email {
		taken, err := s.repo.FindByEmail(ctx, *input.Email)
		if err == nil && taken != nil && taken.ID != id {
			return nil, apperrors.Conflict("Email already exists")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.BadRequest("Failed to update user")
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = input.Name
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, apperrors.BadRequest("Failed to update user")
		}
		user.Password = string(hashed)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperrors.FromStorage(err, "Failed to update user")
	}
	return user.Public(), nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return apperrors.BadRequest("Failed to delete user")
	}
	return nil
}

// ValidatePassword compares a plaintext password against a stored hash. A
// mismatch is (false, nil); any other verifier failure is returned as an
// error since a crashed verifier is not the same as a wrong password.
func (s *userService) ValidatePassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
