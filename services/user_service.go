package services

import (
	"context"
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

// UserPatch updates only the non-nil fields. BlockedUntil needs the staff
// view and Role the admin view; both are ignored otherwise.
type UserPatch struct {
	Email           *string    `json:"email"`
	Username        *string    `json:"username"`
	Password        *string    `json:"password"`
	PasswordConfirm *string    `json:"password_confirm"`
	BlockedUntil    *time.Time `json:"blocked_until"`
	Role            *string    `json:"role"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, p policy.Principal, id uint) (*UserView, error) {
	if err := policy.AuthorizeObject(p, policy.Retrieve, policy.User, &id); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, translateDBError(err, string(policy.User), id)
	}
	view := NewUserView(&user)
	return &view, nil
}

func (s *UserService) UpdateUser(ctx context.Context, p policy.Principal, id uint, patch UserPatch) (*UserView, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return translateDBError(err, string(policy.User), id)
		}
		if err := policy.AuthorizeObject(p, policy.Update, policy.User, &user.ID); err != nil {
			return err
		}
		view := policy.ViewFor(p, policy.User, policy.Update)

		v := &apperr.ValidationError{}
		if patch.Email != nil {
			user.Email = strings.TrimSpace(*patch.Email)
			checkEmail(v, user.Email)
		}
		if patch.Username != nil {
			user.Username = strings.TrimSpace(*patch.Username)
			if user.Username == "" {
				v.Add("username", "this field may not be blank")
			}
		}
		if patch.Password != nil {
			if patch.PasswordConfirm == nil || *patch.PasswordConfirm != *patch.Password {
				v.Add("password_confirm", "passwords do not match")
			} else if *patch.Password == "" {
				v.Add("password", "this field may not be blank")
			}
		}
		if view >= policy.ViewStaff && patch.BlockedUntil != nil {
			user.BlockedUntil = patch.BlockedUntil
		}
		if view == policy.ViewAdmin && patch.Role != nil {
			role, ok := roleByName(*patch.Role)
			if !ok {
				v.Add("role", fmt.Sprintf("%q is not a valid choice", *patch.Role))
			}
			user.RoleID = role
		}
		if err := v.Err(); err != nil {
			return err
		}

		if patch.Password != nil {
			hash, err := utils.HashPassword(*patch.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.Password = hash
		}
		if err := tx.Omit(clause.Associations).Save(&user).Error; err != nil {
			return translateDBError(err, string(policy.User), id)
		}
		return tx.Preload("Role").First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	out := NewUserView(&user)
	return &out, nil
}

func roleByName(name string) (models.RoleID, bool) {
	for _, r := range models.DefaultRoles {
		if r.Name == name {
			return r.ID, true
		}
	}
	return 0, false
}
