package service

import (
	"context"
	"fmt"
	"strings"

	domain "estoque/internal/errors"
	"estoque/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// UserService defines the methods for user registration and
// authentication.
type UserService interface {
	// Register creates a new user. Email and CPF uniqueness are checked
	// independently and reported as ErrEmailTaken / ErrCPFTaken.
	Register(ctx context.Context, user UserCreateDto) (*UserDto, error)

	// Authenticate verifies the email/password pair. It returns
	// ErrInvalidCredentials for both an unknown email and a wrong
	// password, without distinguishing the two.
	Authenticate(ctx context.Context, email, password string) (*UserDto, error)
}

// Users implements UserService over a UserStore, hashing passwords with
// bcrypt before they reach the store.
type Users struct {
	store store.UserStore
}

// NewUserService creates a new instance of UserService with the
// provided store.
func NewUserService(store store.UserStore) *Users {
	return &Users{store: store}
}

// UserCreateDto represents the data transfer object for registering a user.
type UserCreateDto struct {
	Nome  string `json:"nome"  validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	CPF   string `json:"cpf"   validate:"required,cpf"`
	Senha string `json:"senha" validate:"required,min=4"`
}

// UserDto represents the data transfer object for a user. The password
// hash never leaves the service layer.
type UserDto struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

// Register creates a new user after checking both uniqueness rules.
func (u *Users) Register(ctx context.Context, user UserCreateDto) (*UserDto, error) {
	email := strings.TrimSpace(strings.ToLower(user.Email))

	existing, err := u.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	existing, err = u.store.FindByCPF(ctx, user.CPF)
	if err != nil {
		return nil, fmt.Errorf("failed to check CPF uniqueness: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrCPFTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Senha), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := u.store.Create(ctx, user.Nome, email, user.CPF, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return toUserDto(created), nil
}

// Authenticate verifies the email/password pair.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*UserDto, error) {
	user, err := u.store.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return toUserDto(user), nil
}

// toUserDto converts a store.User to a UserDto.
func toUserDto(user *store.User) *UserDto {
	return &UserDto{
		ID:    user.ID,
		Nome:  user.Name,
		Email: user.Email,
	}
}
