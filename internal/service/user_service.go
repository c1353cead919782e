package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for any bad email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"` // defaults to practitioner
	FirmName string `json:"firm_name"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	FirmName  string    `json:"firm_name"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	repo     repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, secret []byte) UserService {
	return &userService{repo: repo, secret: secret, tokenTTL: 24 * time.Hour}
}

func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RolePractitioner || role == model.RoleStaff
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		FirmName:  user.FirmName,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RolePractitioner
	}
	if !validateRole(role) {
		return nil, &compliance.ValidationError{Field: "role", Value: role, Reason: "unknown role", Allowed: []string{model.RoleAdmin, model.RolePractitioner, model.RoleStaff}}
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, &compliance.ValidationError{Field: "username", Value: req.Username, Reason: "already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &compliance.PersistenceError{Op: "check username", Err: err}
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, &compliance.ValidationError{Field: "email", Value: email, Reason: "already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &compliance.PersistenceError{Op: "check email", Err: err}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     role,
		FirmName: req.FirmName,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, &compliance.PersistenceError{Op: "create user", Err: err}
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to sign token")
	}

	return &TokenResponse{Token: signed, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, &compliance.ValidationError{Field: "id", Value: id, Reason: "must be a UUID"}
	}
	user, err := s.repo.GetByID(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &compliance.NotFoundError{Kind: "user", ID: uid}
	} else if err != nil {
		return nil, &compliance.PersistenceError{Op: "load user", Err: err}
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	page, limit = pageDefaults(page, limit)
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}
