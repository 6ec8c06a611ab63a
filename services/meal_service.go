package services

import (
	"context"
	"strings"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MealInput struct {
	Name string `json:"name"`
}

type MealService struct {
	db *gorm.DB
}

func NewMealService(db *gorm.DB) *MealService {
	return &MealService{db: db}
}

func (s *MealService) ListMeals(ctx context.Context, p policy.Principal) ([]models.Meal, error) {
	if err := policy.Authorize(p, policy.List, policy.Meal); err != nil {
		return nil, err
	}
	meals := []models.Meal{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", p.UserID).
		Order("id").
		Find(&meals).Error
	return meals, err
}

// GetMeal only finds the principal's own meals.
func (s *MealService) GetMeal(ctx context.Context, p policy.Principal, id uint) (*models.Meal, error) {
	if err := policy.Authorize(p, policy.Retrieve, policy.Meal); err != nil {
		return nil, err
	}
	var meal models.Meal
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, p.UserID).First(&meal).Error; err != nil {
		return nil, translateDBError(err, string(policy.Meal), id)
	}
	return &meal, nil
}

func (s *MealService) CreateMeal(ctx context.Context, p policy.Principal, in MealInput) (*models.Meal, error) {
	if err := policy.Authorize(p, policy.Create, policy.Meal); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	checkName(v, "name", in.Name)
	if err := v.Err(); err != nil {
		return nil, err
	}
	meal := models.Meal{Name: strings.TrimSpace(in.Name), UserID: p.UserID}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&meal).Error; err != nil {
		return nil, translateDBError(err, string(policy.Meal), 0)
	}
	return &meal, nil
}

func (s *MealService) UpdateMeal(ctx context.Context, p policy.Principal, id uint, in MealInput) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&meal, id).Error; err != nil {
			return translateDBError(err, string(policy.Meal), id)
		}
		owner := meal.UserID
		if err := policy.AuthorizeObject(p, policy.Update, policy.Meal, &owner); err != nil {
			return err
		}
		v := &apperr.ValidationError{}
		checkName(v, "name", in.Name)
		if err := v.Err(); err != nil {
			return err
		}
		meal.Name = strings.TrimSpace(in.Name)
		return tx.Omit(clause.Associations).Save(&meal).Error
	})
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// DeleteMeal removes the meal. Diary entries logged under it are kept.
func (s *MealService) DeleteMeal(ctx context.Context, p policy.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.Meal
		if err := tx.First(&meal, id).Error; err != nil {
			return translateDBError(err, string(policy.Meal), id)
		}
		owner := meal.UserID
		if err := policy.AuthorizeObject(p, policy.Delete, policy.Meal, &owner); err != nil {
			return err
		}
		if err := tx.Model(&models.DiaryEntry{}).Where("meal_id = ?", id).Update("meal_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&meal).Error
	})
}
