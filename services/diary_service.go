package services

import (
	"context"
	"time"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxDiaryMass = 10000.0

// Diary websocket event kinds.
const (
	EventDiaryCreated = "diary.created"
	EventDiaryUpdated = "diary.updated"
	EventDiaryDeleted = "diary.deleted"
)

type DiaryInput struct {
	MealID    *uint      `json:"meal"`
	FoodID    uint       `json:"food"`
	Mass      float64    `json:"mass"`
	AddedDate *time.Time `json:"added_date"`
}

// DiaryPatch updates only the non-nil fields.
type DiaryPatch struct {
	MealID    *uint      `json:"meal"`
	FoodID    *uint      `json:"food"`
	Mass      *float64   `json:"mass"`
	AddedDate *time.Time `json:"added_date"`
}

// DiaryService is the diary ledger. Each entry stores a nutrient snapshot
// scaled to the logged mass; later edits to the food do not reach it.
type DiaryService struct {
	db     *gorm.DB
	notify *Notifier
	now    func() time.Time
}

func NewDiaryService(db *gorm.DB, n *Notifier) *DiaryService {
	return &DiaryService{db: db, notify: n, now: time.Now}
}

func (s *DiaryService) ListEntries(ctx context.Context, p policy.Principal) ([]DiaryView, error) {
	if err := policy.Authorize(p, policy.List, policy.Diary); err != nil {
		return nil, err
	}
	var entries []models.DiaryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", p.UserID).
		Order("added_date DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return s.present(s.db.WithContext(ctx), entries...)
}

// GetEntry only finds the principal's own entries.
func (s *DiaryService) GetEntry(ctx context.Context, p policy.Principal, id uint) (*DiaryView, error) {
	if err := policy.Authorize(p, policy.Retrieve, policy.Diary); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var e models.DiaryEntry
	if err := db.Where("id = ? AND user_id = ?", id, p.UserID).First(&e).Error; err != nil {
		return nil, translateDBError(err, string(policy.Diary), id)
	}
	views, err := s.present(db, e)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *DiaryService) CreateEntry(ctx context.Context, p policy.Principal, in DiaryInput) (*DiaryView, error) {
	if err := policy.Authorize(p, policy.Create, policy.Diary); err != nil {
		return nil, err
	}
	v := &apperr.ValidationError{}
	if in.FoodID == 0 {
		v.Add("food", "this field is required")
	}
	checkDiaryMass(v, in.Mass)
	if err := v.Err(); err != nil {
		return nil, err
	}

	entry := models.DiaryEntry{
		Mass:      in.Mass,
		UserID:    p.UserID,
		MealID:    in.MealID,
		AddedDate: s.now(),
	}
	if in.AddedDate != nil {
		entry.AddedDate = *in.AddedDate
	}
	var views []DiaryView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownMeal(tx, p.UserID, in.MealID); err != nil {
			return err
		}
		food, err := loadFood(tx, in.FoodID)
		if err != nil {
			return err
		}
		entry.FoodID = &food.ID
		entry.Nutrients = utils.Scale(food.NutrientProfile, entry.Mass)
		if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return translateDBError(err, string(policy.Diary), 0)
		}
		views, err = s.present(tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify.DiaryChanged(entry.UserID, EventDiaryCreated, entry.ID)
	return &views[0], nil
}

// UpdateEntry rescales the snapshot from the food's current profile when the
// mass or the food changes. Otherwise the snapshot is left as is.
func (s *DiaryService) UpdateEntry(ctx context.Context, p policy.Principal, id uint, patch DiaryPatch) (*DiaryView, error) {
	var (
		entry models.DiaryEntry
		views []DiaryView
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, id).Error; err != nil {
			return translateDBError(err, string(policy.Diary), id)
		}
		owner := entry.UserID
		if err := policy.AuthorizeObject(p, policy.Update, policy.Diary, &owner); err != nil {
			return err
		}

		v := &apperr.ValidationError{}
		if patch.Mass != nil {
			checkDiaryMass(v, *patch.Mass)
		}
		if err := v.Err(); err != nil {
			return err
		}

		if patch.MealID != nil {
			if err := ownMeal(tx, entry.UserID, patch.MealID); err != nil {
				return err
			}
			entry.MealID = patch.MealID
		}
		if patch.AddedDate != nil {
			entry.AddedDate = *patch.AddedDate
		}

		massChanged := patch.Mass != nil && *patch.Mass != entry.Mass
		foodChanged := patch.FoodID != nil && (entry.FoodID == nil || *patch.FoodID != *entry.FoodID)
		if massChanged || foodChanged {
			foodID := patch.FoodID
			if foodID == nil {
				foodID = entry.FoodID
			}
			if foodID == nil {
				return apperr.NewValidation("food", "the logged food no longer exists")
			}
			food, err := loadFood(tx, *foodID)
			if err != nil {
				return err
			}
			if patch.Mass != nil {
				entry.Mass = *patch.Mass
			}
			entry.FoodID = &food.ID
			entry.Nutrients = utils.Scale(food.NutrientProfile, entry.Mass)
		}

		if err := tx.Omit(clause.Associations).Save(&entry).Error; err != nil {
			return translateDBError(err, string(policy.Diary), id)
		}
		var err error
		views, err = s.present(tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify.DiaryChanged(entry.UserID, EventDiaryUpdated, entry.ID)
	return &views[0], nil
}

func (s *DiaryService) DeleteEntry(ctx context.Context, p policy.Principal, id uint) error {
	var entry models.DiaryEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, id).Error; err != nil {
			return translateDBError(err, string(policy.Diary), id)
		}
		owner := entry.UserID
		if err := policy.AuthorizeObject(p, policy.Delete, policy.Diary, &owner); err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		return err
	}
	s.notify.DiaryChanged(entry.UserID, EventDiaryDeleted, entry.ID)
	return nil
}

// present resolves each entry's food into a product or recipe summary.
func (s *DiaryService) present(db *gorm.DB, entries ...models.DiaryEntry) ([]DiaryView, error) {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		if e.FoodID != nil {
			ids = append(ids, *e.FoodID)
		}
	}
	products := map[uint]ProductSummary{}
	recipes := map[uint]RecipeSummary{}
	if len(ids) > 0 {
		var ps []models.Product
		if err := db.Preload("Food").Where("food_id IN ?", ids).Find(&ps).Error; err != nil {
			return nil, err
		}
		for i := range ps {
			products[ps[i].FoodID] = NewProductSummary(&ps[i])
		}
		var rs []models.Recipe
		if err := db.Preload("Food").Where("food_id IN ?", ids).Find(&rs).Error; err != nil {
			return nil, err
		}
		for i := range rs {
			recipes[rs[i].FoodID] = NewRecipeSummary(&rs[i])
		}
	}

	out := make([]DiaryView, 0, len(entries))
	for _, e := range entries {
		dv := DiaryView{
			ID:           e.ID,
			Mass:         e.Mass,
			CalcCalories: e.Nutrients.Calories,
			CalcProteins: e.Nutrients.Proteins,
			CalcFats:     e.Nutrients.Fats,
			CalcCarbs:    e.Nutrients.Carbs,
			CalcEthanol:  e.Nutrients.Ethanol,
			User:         e.UserID,
			Meal:         e.MealID,
			AddedDate:    e.AddedDate,
		}
		if e.FoodID != nil {
			if ps, ok := products[*e.FoodID]; ok {
				dv.Product = &ps
			} else if rs, ok := recipes[*e.FoodID]; ok {
				dv.Recipe = &rs
			}
		}
		out = append(out, dv)
	}
	return out, nil
}

// ownMeal checks that mealID, when set, names one of ownerID's meals.
func ownMeal(tx *gorm.DB, ownerID uint, mealID *uint) error {
	if mealID == nil {
		return nil
	}
	var meal models.Meal
	if err := tx.Select("id", "user_id").First(&meal, *mealID).Error; err != nil {
		return translateDBError(err, string(policy.Meal), *mealID)
	}
	if meal.UserID != ownerID {
		return apperr.NewValidation("meal", "cannot use other users' meals")
	}
	return nil
}

func loadFood(tx *gorm.DB, id uint) (*models.Food, error) {
	var food models.Food
	if err := tx.First(&food, id).Error; err != nil {
		return nil, translateDBError(err, "foods", id)
	}
	return &food, nil
}

func checkDiaryMass(v *apperr.ValidationError, mass float64) {
	switch {
	case mass <= 0:
		v.Add("mass", "ensure this value is greater than 0")
	case mass > maxDiaryMass:
		v.Add("mass", "ensure this value is less than or equal to 10000")
	}
}
