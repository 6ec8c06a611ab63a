package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RegisterInput struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// AuthService registers accounts and issues tokens.
type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenIssuer
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens, now: time.Now}
}

// Register creates a USER account. It is open to anonymous callers.
func (s *AuthService) Register(ctx context.Context, p policy.Principal, in RegisterInput) (*UserView, error) {
	if err := policy.Authorize(p, policy.Create, policy.User); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	checkEmail(v, in.Email)
	if in.Username == "" {
		v.Add("username", "this field may not be blank")
	}
	if in.Password == "" {
		v.Add("password", "this field may not be blank")
	}
	if in.Password != in.PasswordConfirm {
		v.Add("password_confirm", "passwords do not match")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:    in.Email,
		Username: in.Username,
		Password: hash,
		RoleID:   models.RoleUser,
	}
	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(&user).Error; err != nil {
		return nil, translateDBError(err, string(policy.User), 0)
	}
	if err := db.Preload("Role").First(&user, user.ID).Error; err != nil {
		return nil, err
	}
	view := NewUserView(&user)
	return &view, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthenticated)
	}
	if user.Blocked(s.now()) {
		return nil, apperr.PermissionDenied("account is blocked until %s", user.BlockedUntil.Format(time.RFC3339))
	}
	token, err := s.tokens.Generate(user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: NewUserView(&user)}, nil
}
